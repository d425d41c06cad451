// Package main provides blobctl, a small CLI for moving files to and from
// the S3 object store: upload a file or directory, download an object or a
// whole prefix, and list keys. Credentials and bucket settings come from the
// environment (S3_BUCKET, S3_REGION, AWS_ACCESS_KEY_ID, ...), never from
// source or flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jasonliu0704/LivePortrait/internal/config"
	"github.com/jasonliu0704/LivePortrait/internal/storage"
)

// ErrS3NotConfigured is returned when the bucket settings are missing.
var ErrS3NotConfigured = errors.New("S3_BUCKET and S3_REGION must be set")

const usage = `Usage:
  blobctl upload <file-or-dir> [-prefix <prefix>]
  blobctl download <key-or-prefix> [-out <path>] [-recursive]
  blobctl list [<prefix>]

Configuration is read from the environment: S3_BUCKET, S3_REGION and,
optionally, S3_ENDPOINT, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	switch args[0] {
	case "upload":
		return runUpload(ctx, store, args[1:])
	case "download":
		return runDownload(ctx, store, args[1:])
	case "list":
		return runList(ctx, store, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// newStore builds the object store from environment configuration.
func newStore() (*storage.S3Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.S3Enabled() {
		return nil, ErrS3NotConfigured
	}
	return storage.NewS3Store(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
}

// runUpload uploads a single file or, for a directory, every file under it.
func runUpload(ctx context.Context, store *storage.S3Store, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "key prefix within the bucket, e.g. images/profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("upload expects exactly one file or directory")
	}
	local := fs.Arg(0)

	info, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("stat %s: %w", local, err)
	}

	if info.IsDir() {
		urls, err := store.UploadDir(ctx, local, *prefix)
		if err != nil {
			return err
		}
		for _, url := range urls {
			fmt.Println(url)
		}
		return nil
	}

	url, err := store.UploadFile(ctx, local, *prefix)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

// runDownload fetches a single object, or everything under a prefix with -recursive.
func runDownload(ctx context.Context, store *storage.S3Store, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	out := fs.String("out", "", "destination file (single object) or directory (-recursive)")
	recursive := fs.Bool("recursive", false, "treat the argument as a prefix and download all objects under it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("download expects exactly one key or prefix")
	}
	key := fs.Arg(0)

	if *recursive {
		paths, err := store.DownloadPrefix(ctx, key, *out)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	local, err := store.Download(ctx, key, *out)
	if err != nil {
		return err
	}
	fmt.Println(local)
	return nil
}

// runList prints the keys under an optional prefix.
func runList(ctx context.Context, store *storage.S3Store, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	keys, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}
