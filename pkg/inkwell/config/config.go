package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
	"github.com/inkwell-cms/inkwell/pkg/inkwell/auth"
	fsrepo "github.com/inkwell-cms/inkwell/pkg/inkwell/repo/fs"
	githubrepo "github.com/inkwell-cms/inkwell/pkg/inkwell/repo/github"
	fsstorage "github.com/inkwell-cms/inkwell/pkg/inkwell/storage/fs"
	memorystorage "github.com/inkwell-cms/inkwell/pkg/inkwell/storage/memory"
	s3storage "github.com/inkwell-cms/inkwell/pkg/inkwell/storage/s3"
)

// ServerConfig represents server configuration for the inkwell editor backend
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	Auth    AuthConfig
	GitHub  GitHubConfig
	Content ContentConfig
	Staging StagingConfig
}

// AuthConfig holds the single editor account and token settings
type AuthConfig struct {
	Username string        `env:"AUTH_USERNAME" env-default:"admin"`
	Password string        `env:"AUTH_PASSWORD"`
	Secret   string        `env:"AUTH_SECRET"`
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" env-default:"24h"`
}

// GitHubConfig holds the content repository coordinates. Leaving Token empty
// disables the repository store and the server runs local-only.
type GitHubConfig struct {
	Token          string `env:"GITHUB_TOKEN"`
	Owner          string `env:"GITHUB_OWNER"`
	Repo           string `env:"GITHUB_REPO"`
	Branch         string `env:"GITHUB_BRANCH" env-default:"main"`
	CommitterName  string `env:"GITHUB_COMMITTER_NAME" env-default:"Blog Editor"`
	CommitterEmail string `env:"GITHUB_COMMITTER_EMAIL" env-default:"editor@localhost"`
}

// ContentConfig holds the local content mirror location
type ContentConfig struct {
	Dir string `env:"CONTENT_DIR" env-default:"./data/content"`
}

// StagingConfig selects and configures the image staging backend
type StagingConfig struct {
	Backend   string `env:"STAGING_BACKEND" env-default:"memory"` // "s3", "fs", "memory"
	PublicURL string `env:"STAGING_PUBLIC_URL"`
	FSBaseDir string `env:"STAGING_FS_DIR" env-default:"./data/staging"`

	S3 S3Config
}

// S3Config holds the S3-compatible staging store settings
type S3Config struct {
	Region                 string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Bucket                 string `env:"AWS_S3_BUCKET"`
	AccessKeyID            string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint               string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle           bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucketIfNotExist bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// LoadServerConfig reads configuration from environment variables
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.Auth.Password == "" {
		return errors.New("AUTH_PASSWORD is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("AUTH_SECRET is required")
	}

	if c.GitHub.Token != "" && (c.GitHub.Owner == "" || c.GitHub.Repo == "") {
		return errors.New("GITHUB_OWNER and GITHUB_REPO are required when GITHUB_TOKEN is set")
	}

	switch c.Staging.Backend {
	case "memory":
	case "fs":
		if c.Staging.FSBaseDir == "" {
			return errors.New("STAGING_FS_DIR is required for the fs staging backend")
		}
	case "s3":
		if c.Staging.S3.Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required for the s3 staging backend")
		}
	default:
		return fmt.Errorf("unsupported staging backend: %s", c.Staging.Backend)
	}

	return nil
}

// BuildAuthService creates the credential service from the configuration.
func (c *ServerConfig) BuildAuthService() (*auth.Service, error) {
	return auth.New(auth.Config{
		Username: c.Auth.Username,
		Password: c.Auth.Password,
		Secret:   c.Auth.Secret,
		TokenTTL: c.Auth.TokenTTL,
	})
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (inkwell.Service, error) {
	var options []inkwell.Option

	local, err := fsrepo.New(fsrepo.Config{BaseDir: c.Content.Dir})
	if err != nil {
		return nil, fmt.Errorf("failed to build local store: %w", err)
	}
	options = append(options, inkwell.WithLocalStore(local))

	if c.GitHub.Token != "" {
		repo, err := githubrepo.New(githubrepo.Config{
			Token:          c.GitHub.Token,
			Owner:          c.GitHub.Owner,
			Repo:           c.GitHub.Repo,
			Branch:         c.GitHub.Branch,
			CommitterName:  c.GitHub.CommitterName,
			CommitterEmail: c.GitHub.CommitterEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build repository store: %w", err)
		}
		options = append(options, inkwell.WithRepository(repo))
	}

	staging, err := c.buildStagingBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to build staging backend %s: %w", c.Staging.Backend, err)
	}
	options = append(options, inkwell.WithStaging(staging))

	if hosts := c.stagingHosts(); len(hosts) > 0 {
		options = append(options, inkwell.WithStagingHosts(hosts...))
	}

	return inkwell.New(options...)
}

// buildStagingBackend creates a BlobStore based on the staging configuration
func (c *ServerConfig) buildStagingBackend() (inkwell.BlobStore, error) {
	switch c.Staging.Backend {
	case "memory":
		prefix := c.Staging.PublicURL
		if prefix == "" {
			prefix = "http://localhost:" + c.Port + "/staging"
		}
		return memorystorage.New(prefix), nil

	case "fs":
		prefix := c.Staging.PublicURL
		if prefix == "" {
			prefix = "http://localhost:" + c.Port + "/staging"
		}
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.Staging.FSBaseDir,
			URLPrefix: prefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.Staging.S3.Region,
			Bucket:                 c.Staging.S3.Bucket,
			AccessKeyID:            c.Staging.S3.AccessKeyID,
			SecretAccessKey:        c.Staging.S3.SecretAccessKey,
			Endpoint:               c.Staging.S3.Endpoint,
			UsePathStyle:           c.Staging.S3.UsePathStyle,
			PublicBaseURL:          c.Staging.PublicURL,
			CreateBucketIfNotExist: c.Staging.S3.CreateBucketIfNotExist,
		})

	default:
		return nil, fmt.Errorf("unsupported staging backend type: %s", c.Staging.Backend)
	}
}

// stagingHosts derives the hostnames whose image URLs the pipeline treats as
// staged uploads in need of migration.
func (c *ServerConfig) stagingHosts() []string {
	var hosts []string
	add := func(raw string) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			return
		}
		hosts = append(hosts, u.Hostname())
	}

	add(c.Staging.PublicURL)
	if c.Staging.Backend == "s3" {
		add(c.Staging.S3.Endpoint)
		if c.Staging.S3.Bucket != "" {
			hosts = append(hosts, fmt.Sprintf("%s.s3.%s.amazonaws.com", c.Staging.S3.Bucket, c.Staging.S3.Region))
		}
	}
	return hosts
}
