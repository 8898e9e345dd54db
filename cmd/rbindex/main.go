package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const dotenvFile = ".env.local"

func main() {
	if _, err := os.Stat(dotenvFile); err == nil {
		if err := godotenv.Load(dotenvFile); err != nil {
			log.WithError(err).Fatal("error loading dotenv file")
		}
	}

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("cannot execute command")
	}
}
