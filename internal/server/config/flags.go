package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-k", "-o", "-m", "-f", "-u", "-p", "-b", "-g", "-e"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN, empty for in-memory storage
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-k string   password hasher: bcrypt or argon2id
//	-o int      bcrypt cost
//	-m string   attachment storage: local or s3
//	-f string   upload directory for local storage
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only the flags above are looked at; the rest of os.Args is filtered out
// with flagx.FilterArgs.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity duration (in minutes)")

	fs.StringVar(&config.Hasher, "k", config.Hasher, "password hasher (bcrypt|argon2id)")
	fs.IntVar(&config.BcryptCost, "o", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.AttachmentStorage, "m", config.AttachmentStorage, "attachment storage (local|s3)")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// keep sub-minute TTLs from JSON/env unless -t was given
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
		}
	})

	return nil
}
