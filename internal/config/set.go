package config

import (
	"fmt"
	"strconv"
)

// Set assigns one value addressed by dotted key, for `gn config --set
// key=value`. The caller re-validates afterwards.
func Set(cfg *Config, key, value string) error {
	switch key {
	case "whisper.model":
		cfg.Whisper.Model = value
	case "whisper.language":
		cfg.Whisper.Language = value
	case "whisper.device":
		cfg.Whisper.Device = value
	case "whisper.download_root":
		cfg.Whisper.DownloadRoot = value
	case "audio.sample_rate":
		return setInt(&cfg.Audio.SampleRate, key, value)
	case "audio.channels":
		return setInt(&cfg.Audio.Channels, key, value)
	case "audio.device":
		cfg.Audio.Device = value
	case "audio.silence_threshold":
		return setFloat(&cfg.Audio.SilenceThreshold, key, value)
	case "audio.silence_duration":
		return setFloat(&cfg.Audio.SilenceDuration, key, value)
	case "output.format":
		cfg.Output.Format = value
	case "output.output_dir":
		cfg.Output.Directory = value
	case "output.timestamps":
		return setBool(&cfg.Output.Timestamps, key, value)
	case "output.save_segments":
		return setBool(&cfg.Output.SaveSegments, key, value)
	case "processing.batch_size":
		return setInt(&cfg.Processing.BatchSize, key, value)
	case "processing.num_workers":
		return setInt(&cfg.Processing.Workers, key, value)
	case "processing.chunk_duration":
		return setFloat(&cfg.Processing.ChunkDuration, key, value)
	case "processing.auto_split":
		return setBool(&cfg.Processing.AutoSplit, key, value)
	case "history.enabled":
		return setBool(&cfg.History.Enabled, key, value)
	case "history.backend":
		cfg.History.Backend = value
	case "history.path":
		cfg.History.Path = value
	case "history.dsn":
		cfg.History.DSN = value
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.addr":
		cfg.Cache.Addr = value
	case "cache.password":
		cfg.Cache.Password = value
	case "cache.db":
		return setInt(&cfg.Cache.DB, key, value)
	case "cache.ttl":
		cfg.Cache.TTL = value
	case "cache.key_prefix":
		cfg.Cache.KeyPrefix = value
	case "storage.enabled":
		return setBool(&cfg.Storage.Enabled, key, value)
	case "storage.endpoint":
		cfg.Storage.Endpoint = value
	case "storage.access_key":
		cfg.Storage.AccessKey = value
	case "storage.secret_key":
		cfg.Storage.SecretKey = value
	case "storage.use_ssl":
		return setBool(&cfg.Storage.UseSSL, key, value)
	case "storage.bucket":
		cfg.Storage.Bucket = value
	case "storage.prefix":
		cfg.Storage.Prefix = value
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		return setInt(&cfg.Server.Port, key, value)
	case "server.max_upload_mb":
		return setInt(&cfg.Server.MaxUploadMB, key, value)
	case "default_provider":
		cfg.DefaultProvider = value
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s wants an integer, got %q", key, value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("config: %s wants a number, got %q", key, value)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("config: %s wants true or false, got %q", key, value)
	}
	*dst = b
	return nil
}
