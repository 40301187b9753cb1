package main

import (
	"flag"
	"log"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/authorsapi/profiles/internal/app/apiserver"
	"github.com/joho/godotenv"
)

var (
	configPath string
)

func init() {
	flag.StringVar(&configPath, "config-path", "configs/apiserver.toml", "path to config")
}

func main() {
	flag.Parse()

	config := apiserver.NewConfig()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// ${VAR} placeholders are filled from the environment before decoding.
	if _, err := toml.Decode(os.ExpandEnv(string(data)), config); err != nil {
		log.Fatal(err)
	}

	s := apiserver.New(config)

	if err := s.Start(); err != nil {
		log.Fatal(err)
	}
}
