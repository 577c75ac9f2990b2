package config

// Secrets are read from the environment, optionally populated from .env.
const (
	EnvEd25519PublicKey = "ED25519_PUBKEY"
	EnvClerkKey         = "CLERK_API"
	EnvS3AccessKeyID    = "S3_ACCESS_KEY_ID"
	EnvS3SecretKey      = "S3_SECRET_ACCESS_KEY"
	EnvRedisPassword    = "REDIS_PASSWORD"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"

	ObjectStoreFS = "fs"
	ObjectStoreS3 = "s3"

	AuthEd25519 = "ed25519"
	AuthClerk   = "clerk"
)
