// @title mediaconv API
// @version 1.0
// @description Credit-gated conversion of YouTube videos and uploaded files to mp3, wav or flac.
// @host localhost:5000
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import "mediaconv/cmd/mediaconv/cmd"

func main() {
	cmd.Execute()
}
