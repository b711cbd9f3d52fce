package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/catalog/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN, or "memory"
//	-i string   Elasticsearch URL, or "memory"
//	-n string   index name
//	-s int      index sync interval, seconds
//	-b int      index sync batch size
//	-r int      retention interval, seconds
//	-o int      background cycle timeout, seconds
//	-p int      default page size
//	-m int      maximum page size
//	-t int      HTTP request timeout, seconds
//	-l string   log level
//	-f string   seed source (path or s3://bucket/key)
//	-u string   S3 root user
//	-w string   S3 root password
//	-x string   S3 region
//	-e string   S3 base endpoint
//
// Notes:
//   - os.Args is first filtered to the flags recognized here using
//     flagx.FilterArgs, so -c/-config and foreign flags do not collide.
//   - Interval flags are integers in seconds converted to time.Duration. They
//     override the current value only when given, so sub-second values from
//     the config file survive.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-i", "-n", "-s", "-b", "-r", "-o", "-p", "-m", "-t", "-l", "-f", "-u", "-w", "-x", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.IndexURL, "i", config.IndexURL, "search index URL")
	fs.StringVar(&config.IndexName, "n", config.IndexName, "search index name")

	indexSyncInterval := fs.Int("s", int(config.IndexSyncInterval.Seconds()), "index sync interval (in seconds)")
	fs.IntVar(&config.IndexSyncBatchSize, "b", config.IndexSyncBatchSize, "index sync batch size")
	retentionInterval := fs.Int("r", int(config.RetentionInterval.Seconds()), "retention interval (in seconds)")
	cycleTimeout := fs.Int("o", int(config.CycleTimeout.Seconds()), "background cycle timeout (in seconds)")

	fs.IntVar(&config.DefaultPageSize, "p", config.DefaultPageSize, "default page size")
	fs.IntVar(&config.MaxPageSize, "m", config.MaxPageSize, "maximum page size")
	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SeedSource, "f", config.SeedSource, "seed source")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "w", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "x", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	seconds := map[string]struct {
		dst *time.Duration
		val *int
	}{
		"s": {&config.IndexSyncInterval, indexSyncInterval},
		"r": {&config.RetentionInterval, retentionInterval},
		"o": {&config.CycleTimeout, cycleTimeout},
		"t": {&config.RequestTimeout, requestTimeout},
	}
	fs.Visit(func(f *flag.Flag) {
		if d, ok := seconds[f.Name]; ok {
			*d.dst = time.Duration(*d.val) * time.Second
		}
	})
}
