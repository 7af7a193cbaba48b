// Copyright (C) 2024 Sundai Club
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pixel

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// NewGridFromFile loads the image file with the given name into a grayscale grid
// with the given ID. The decoder is chosen based on the file name extension
func NewGridFromFile(fileName string, id int) (*Grid, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".png":
		return readImageFile(fileName, id, png.Decode)
	case ".jpg", ".jpeg":
		return readImageFile(fileName, id, jpeg.Decode)
	case ".gif":
		return readImageFile(fileName, id, gif.Decode)
	case ".tif", ".tiff":
		return readImageFile(fileName, id, tiff.Decode)
	}
	return nil, errors.New(fmt.Sprintf("%s: unknown input file extension %s", fileName, ext))
}

// Open the named file and decode it with the given decoder, converting to a grid
func readImageFile(fileName string, id int, decode func(io.Reader) (image.Image, error)) (*Grid, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := decode(bufio.NewReader(file))
	if err != nil {
		return nil, errors.New(fmt.Sprintf("%s: %s", fileName, err.Error()))
	}

	g := NewGridFromImage(img, id)
	g.FileName = fileName
	return g, nil
}

// NewGridFromImage converts a decoded image into a grayscale grid with values in
// [0, 255]. Gray images keep their 8 bit values, 16 bit grays are scaled down
// preserving fractional precision, and color images are reduced with the ITU-R
// BT.601 luma weights
func NewGridFromImage(img image.Image, id int) *Grid {
	bounds := img.Bounds()
	width, height := int32(bounds.Dx()), int32(bounds.Dy())
	data := make([]float32, int(width)*int(height))

	switch im := img.(type) {
	case *image.Gray:
		for y := 0; y < int(height); y++ {
			row := im.Pix[y*im.Stride : y*im.Stride+int(width)]
			for x, v := range row {
				data[y*int(width)+x] = float32(v)
			}
		}

	case *image.Gray16:
		for y := 0; y < int(height); y++ {
			for x := 0; x < int(width); x++ {
				v := uint32(im.Pix[y*im.Stride+2*x])<<8 | uint32(im.Pix[y*im.Stride+2*x+1])
				data[y*int(width)+x] = float32(v) * (255.0 / 65535.0)
			}
		}

	default:
		for y := 0; y < int(height); y++ {
			for x := 0; x < int(width); x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				luma := 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)
				data[y*int(width)+x] = luma * (255.0 / 65535.0)
			}
		}
	}

	return NewGrid(id, width, height, data)
}
