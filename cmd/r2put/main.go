// r2put uploads a local file through an R2 manager server. It works in two
// modes: authenticated (bearer token, account and bucket) or link (a public
// upload link token). Large files are split into multipart chunks
// automatically.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saifulislam80/r2-manager/pkg/r2manager/uploader"
)

func main() {
	var (
		serverURL   = flag.String("server", "http://localhost:3000", "R2 manager server URL")
		token       = flag.String("token", "", "bearer token (authenticated mode)")
		accountID   = flag.String("account", "", "storage account ID (authenticated mode)")
		bucket      = flag.String("bucket", "", "bucket name (authenticated mode)")
		linkToken   = flag.String("link", "", "upload link token (link mode)")
		key         = flag.String("key", "", "destination object key (defaults to the file name)")
		contentType = flag.String("content-type", "application/octet-stream", "content type of the file")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: r2put [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	file, err := os.Open(filePath)
	if err != nil {
		slog.Error("Failed to open file", "path", filePath, "err", err)
		os.Exit(1)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		slog.Error("Failed to stat file", "path", filePath, "err", err)
		os.Exit(1)
	}

	objectKey := *key
	if objectKey == "" {
		objectKey = filepath.Base(filePath)
	}

	progress := uploader.WithProgress(func(sent, total int64) {
		fmt.Printf("\ruploaded %d / %d bytes", sent, total)
	})

	var up *uploader.Uploader
	switch {
	case *linkToken != "":
		client := uploader.NewLinkClient(*serverURL, *linkToken)
		linkInfo, err := client.Info(context.Background())
		if err != nil {
			slog.Error("Upload link is invalid or expired", "err", err)
			os.Exit(1)
		}
		slog.Info("Uploading via link",
			"bucket", linkInfo.BucketName,
			"prefix", linkInfo.Prefix,
			"expires_at", linkInfo.ExpiresAt)
		up = uploader.NewForLink(client, progress)
	case *token != "" && *accountID != "" && *bucket != "":
		up = uploader.New(uploader.NewClient(*serverURL, *token, *accountID, *bucket), progress)
	default:
		fmt.Fprintln(os.Stderr, "either -link or all of -token, -account and -bucket are required")
		os.Exit(2)
	}

	if err := up.Upload(context.Background(), objectKey, file, info.Size(), *contentType); err != nil {
		fmt.Println()
		slog.Error("Upload failed", "key", objectKey, "err", err)
		os.Exit(1)
	}

	fmt.Println()
	slog.Info("Upload complete", "key", objectKey, "size", info.Size())
}
