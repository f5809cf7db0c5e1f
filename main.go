package main

import (
	"log"

	_ "github.com/anoixa/mozaiek/docs"

	"github.com/anoixa/mozaiek/config"

	"github.com/anoixa/mozaiek/cmd"
)

// @title                       Mozaiek API
// @version                     1.0
// @description                 Memorial mosaics: a base photo revealed by visitors' memories.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Owner JWT, format: Bearer {token}
func main() {
	log.Printf("mozaiek %s", config.VersionString())
	cmd.Execute()
}
