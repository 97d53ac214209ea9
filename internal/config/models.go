package config

// ModelConfig represents the configuration for the model artifact
type ModelConfig struct {
	Path string
}

// SpamConfig represents the classification posture
type SpamConfig struct {
	Profile            string
	WhitelistedDomains []string
}

// HTTPConfig represents the configuration for the HTTP API server
type HTTPConfig struct {
	Enabled         bool
	ListenAddress   string
	MaxBatch        int
	MaxUploadBytes  int64
	ShutdownTimeout string
}

// SMTPConfig represents the configuration for the SMTP content filter
type SMTPConfig struct {
	Enabled       bool
	ListenAddress string
	BlockSpam     bool
	StatusHeader  string
	ScoreHeader   string
	ProfileHeader string
	SubjectPrefix string
	ModifySubject bool
	RelayEnabled  bool
	RelayAddress  string
	RelayPort     int
	MaxBodySize   int
}

// BatchConfig represents the configuration for batch scoring
type BatchConfig struct {
	Workers   int
	ChunkSize int
}

// RedisConfig represents the configuration for the Redis cache backend
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// GetModel returns the model configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Path: c.GetString("model.path"),
	}
}

// GetSpam returns the classification posture configuration
func (c *Config) GetSpam() SpamConfig {
	return SpamConfig{
		Profile:            c.GetString("spam.profile"),
		WhitelistedDomains: c.GetStringSlice("spam.whitelisted_domains"),
	}
}

// GetHTTP returns the HTTP server configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled:         c.GetBool("server.http.enabled"),
		ListenAddress:   c.GetString("server.http.listen_address"),
		MaxBatch:        c.GetInt("server.http.max_batch"),
		MaxUploadBytes:  c.GetInt64("server.http.max_upload_bytes"),
		ShutdownTimeout: c.GetString("server.http.shutdown_timeout"),
	}
}

// GetSMTP returns the SMTP filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:       c.GetBool("server.smtp.enabled"),
		ListenAddress: c.GetString("server.smtp.listen_address"),
		BlockSpam:     c.GetBool("server.smtp.block_spam"),
		StatusHeader:  c.GetString("server.smtp.headers.status"),
		ScoreHeader:   c.GetString("server.smtp.headers.score"),
		ProfileHeader: c.GetString("server.smtp.headers.profile"),
		SubjectPrefix: c.GetString("server.smtp.subject_prefix"),
		ModifySubject: c.GetBool("server.smtp.modify_subject"),
		RelayEnabled:  c.GetBool("server.smtp.relay.enabled"),
		RelayAddress:  c.GetString("server.smtp.relay.address"),
		RelayPort:     c.GetInt("server.smtp.relay.port"),
		MaxBodySize:   c.GetInt("server.smtp.max_body_size"),
	}
}

// GetBatch returns the batch scoring configuration
func (c *Config) GetBatch() BatchConfig {
	return BatchConfig{
		Workers:   c.GetInt("batch.workers"),
		ChunkSize: c.GetInt("batch.chunk_size"),
	}
}

// GetRedis returns the Redis cache backend configuration
func (c *Config) GetRedis() RedisConfig {
	return RedisConfig{
		Address:   c.GetString("cache.redis.address"),
		Password:  c.GetString("cache.redis.password"),
		DB:        c.GetInt("cache.redis.db"),
		KeyPrefix: c.GetString("cache.redis.key_prefix"),
	}
}
