package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"gopkg.in/yaml.v3"

	"loyaltygo/loyalty"
)

// Configure : Create or modify the configuration file interactively
func Configure(filename string) (err error) {

	var cfg config
	cfg.File = strings.TrimSuffix(filename, filepath.Ext(filename))

	err = cfg.Open()
	if err != nil {
		return
	}

	if len(cfg.Account.APIKey) == 0 || len(cfg.Account.Username) == 0 || len(cfg.Account.Password) == 0 {
		if err = cfg.promptAccount(); err != nil {
			return
		}
	}

	for {

		menu := promptui.Select{
			Label: fmt.Sprintf("Configuration [%s.yaml]", cfg.File),
			Items: []string{
				"Save and exit",
				"Account",
				fmt.Sprintf("API host [%s]", cfg.API.Host),
				fmt.Sprintf("Token store [%s]", cfg.TokenStore.Driver),
				fmt.Sprintf("Debug [%t]", cfg.Options.Debug),
				"Test login",
			},
			Size: 6,
		}

		selection, _, err := menu.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		switch selection {

		case 0:
			return cfg.Save()

		case 1:
			err = cfg.promptAccount()

		case 2:
			cfg.API.Host, err = promptText("API host", cfg.API.Host, validateURL)

		case 3:
			err = cfg.promptTokenStore()

		case 4:
			cfg.Options.Debug = !cfg.Options.Debug

		case 5:
			err = testLogin(&cfg)

		}

		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				return nil
			}
			ShowErr(err)
		}

	}

}

func (c *config) promptAccount() (err error) {

	if c.Account.APIKey, err = promptText("API key", c.Account.APIKey, validateRequired); err != nil {
		return
	}
	if c.Account.Username, err = promptText("Username", c.Account.Username, validateRequired); err != nil {
		return
	}

	prompt := promptui.Prompt{
		Label:    "Password",
		Mask:     '*',
		Validate: validateRequired,
	}
	c.Account.Password, err = prompt.Run()
	return
}

func (c *config) promptTokenStore() (err error) {

	drivers := []string{loyalty.DriverFile, loyalty.DriverRedis, loyalty.DriverSQLite}
	sel := promptui.Select{Label: "Token store", Items: drivers}

	i, _, err := sel.Run()
	if err != nil {
		return
	}
	c.TokenStore.Driver = drivers[i]

	switch c.TokenStore.Driver {

	case loyalty.DriverFile:
		c.Files.Token, err = promptText("Token file", c.Files.Token, validateRequired)

	case loyalty.DriverRedis:
		if c.TokenStore.Redis.Address, err = promptText("Redis address", c.TokenStore.Redis.Address, validateRequired); err != nil {
			return
		}
		var db string
		db, err = promptText("Redis DB", strconv.Itoa(c.TokenStore.Redis.DB), validateInt)
		if err != nil {
			return
		}
		c.TokenStore.Redis.DB, _ = strconv.Atoi(db)

	case loyalty.DriverSQLite:
		c.TokenStore.SQLite.DSN, err = promptText("SQLite DSN", c.TokenStore.SQLite.DSN, validateRequired)

	}
	return
}

func testLogin(c *config) error {

	client, closeLog, err := openClient(context.Background(), c)
	if err != nil {
		return err
	}
	defer closeLog()
	defer client.Close()

	return printTokenState(context.Background(), client)
}

func promptText(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Validate:  validate,
	}
	v, err := prompt.Run()
	return strings.TrimSpace(v), err
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value required")
	}
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return errors.New("host must start with http:// or https://")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("number required")
	}
	return nil
}

func (c *config) Open() (err error) {

	data, err := os.ReadFile(fmt.Sprintf("%s.yaml", c.File))
	var newOptions bool

	if err != nil {
		// File is missing, create new config file (YAML)
		c.InitConfig()
		err = c.Save()
		if err != nil {
			return
		}

		return nil
	}

	// Open config file and convert Yaml to Struct (config)
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return
	}

	/*
	   New config options
	*/

	if !bytes.Contains(data, []byte("Token Store:")) {
		newOptions = true
		c.TokenStore.Driver = loyalty.DriverFile
		logger.Info("update config file", "filename", c.File+".yaml")
	}

	if !bytes.Contains(data, []byte("Server:")) {
		newOptions = true
		c.Server.Address = "localhost"
		c.Server.Port = "8080"
	}

	if c.Files.Token == "" {
		c.Files.Token = fmt.Sprintf("%s_token.json", c.File)
		newOptions = true
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
		newOptions = true
	}

	if newOptions {
		err = c.Save()
		if err != nil {
			return
		}
	}

	return
}

func (c *config) Save() (err error) {

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	err = os.WriteFile(fmt.Sprintf("%s.yaml", c.File), data, 0600)
	if err != nil {
		return
	}

	return
}

func (c *config) InitConfig() {

	// Files
	c.Files.Token = fmt.Sprintf("%s_token.json", c.File)
	c.Files.Log = "api.log"

	// API
	c.API.InsecureSkipVerify = false

	// Token store
	c.TokenStore.Driver = loyalty.DriverFile
	c.TokenStore.Redis.Key = "loyalty:token"
	c.TokenStore.SQLite.DSN = fmt.Sprintf("%s_token.db", c.File)

	// Server
	c.Server.Address = "localhost"
	c.Server.Port = "8080"

	// Options
	c.Options.Debug = false

}

// loadConfig opens the YAML file named by filename and applies environment
// overrides.
func loadConfig(filename string) (*config, error) {
	if filename == "" {
		return nil, errors.New("no configuration file given, use --config")
	}

	cfg := &config{File: strings.TrimSuffix(filename, filepath.Ext(filename))}
	if err := cfg.Open(); err != nil {
		return nil, fmt.Errorf("could not open configuration: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}
