package config

const (
	UploadsLocalDir = "uploads"
	UploadsURLPath  = "/" + UploadsLocalDir + "/"

	DefaultConfigPath = "config.yaml"
	EnvConfigPath     = "HOMESTEAD_CONFIG"
)
