// Package config loads the deployment configuration from a TOML file.
// Every field has a working default so the server runs with no file at
// all; a file overrides only the fields it sets.
package config

import (
	"fmt"
	"os"

	"github.com/Shiro005/electionapp-sub000/internal/model"
	"github.com/Shiro005/electionapp-sub000/internal/translate"
	"github.com/pelletier/go-toml/v2"
)

type Server struct {
	Address string `toml:"address"`
}

type Printer struct {
	// FontPath points at a Devanagari-capable TTF. Empty means the
	// embedded fallback face.
	FontPath string `toml:"font_path"`
}

type Translate struct {
	TargetLang string `toml:"target_lang"`
	Endpoint   string `toml:"endpoint"`
}

type Export struct {
	Password string `toml:"password"`
}

type Config struct {
	Server    Server                  `toml:"server"`
	Printer   Printer                 `toml:"printer"`
	Translate Translate               `toml:"translate"`
	Export    Export                  `toml:"export"`
	Branding  model.CandidateBranding `toml:"branding"`
}

// Default is the configuration used when no file is present. The branding
// block is always populated so a receipt never prints with blank headers.
func Default() Config {
	return Config{
		Server: Server{Address: ":8080"},
		Translate: Translate{
			TargetLang: "mr",
			Endpoint:   translate.DefaultEndpoint,
		},
		Export: Export{Password: "admin123"},
		Branding: model.CandidateBranding{
			PartyName:      "आपली पार्टी",
			CandidateName:  "उमेदवाराचे नाव",
			Slogan:         "विकास आणि विश्वास",
			Area:           "मतदारसंघ",
			ContactNumber:  "",
			ElectionSymbol: "चिन्ह",
		},
	}
}

// Load reads the file at path on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
