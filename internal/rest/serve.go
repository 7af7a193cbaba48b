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

package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sundai-club/james-webb-live/internal/ops"
	"github.com/sundai-club/james-webb-live/internal/ops/extract"
	"github.com/sundai-club/james-webb-live/web"
)

func Serve(port int) {
	r := gin.Default()
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/extract", postExtract)
			v1.POST("/scene", postScene)
		}
	}
	r.Run(fmt.Sprintf(":%d", port)) // listen and serve on 0.0.0.0:port
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Builds the load promise for the given filename, then chains the given sequence
// of extraction steps onto it. A nil sequence chains the default pipeline without
// file outputs
func makeExtractPromises(fileName string, seq *ops.OpSequence, c *ops.Context) ([]ops.Promise, error) {
	opLoad := ops.NewOpLoad(0, fileName)
	promises, err := opLoad.MakePromises(nil, c)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		seq = extract.NewOpExtract(
			extract.NewOpDetectCenterDefault(), extract.NewOpDetectStarsDefault(),
			extract.NewOpSampleCloudsDefault(), extract.NewOpAssembleDefault(),
			extract.NewOpSaveSceneDefault(), extract.NewOpSaveOverlayDefault(),
		)
	}
	return seq.MakePromises(promises, c)
}

type postExtractArgs struct {
	FileName string          `json:"fileName"`
	Seed     uint32          `json:"seed"`
	Extract  *ops.OpSequence `json:"extract"`
}

// Runs the extraction pipeline on a server-side image, streaming the
// processing log back as plain text
func postExtract(c *gin.Context) {
	logWriter := c.Writer
	var args postExtractArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", args); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	cc := ops.NewContext(logWriter, args.Seed)
	promises, err := makeExtractPromises(args.FileName, args.Extract, cc)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		logWriter.(http.Flusher).Flush()
		return
	}

	if err = ops.MaterializeAll(promises); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
}

type postSceneArgs struct {
	FileName string          `json:"fileName"`
	Seed     uint32          `json:"seed"`
	Extract  *ops.OpSequence `json:"extract"`
}

// Runs the extraction pipeline on a server-side image and responds with the
// assembled particle scene as JSON
func postScene(c *gin.Context) {
	var args postSceneArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cc := ops.NewContext(io.Discard, args.Seed)
	promises, err := makeExtractPromises(args.FileName, args.Extract, cc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := promises[0]()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if g.Scene == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no scene assembled, add an assemble step to the sequence"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if err := g.Scene.WriteJSON(c.Writer); err != nil {
		fmt.Fprintf(c.Writer, "\nerror: %s\n", err.Error())
	}
}
