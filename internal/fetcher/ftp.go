// Package fetcher pulls newly published source files from the national FTP
// drop into the local unprocessed area.
package fetcher

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Host      string // host or host:port; port 21 assumed when absent
	User      string
	Password  string
	RemoteDir string
	Timeout   time.Duration
	// PerSecond caps download starts to stay friendly to the shared drop.
	PerSecond float64
}

// FTPFetcher mirrors report files from an FTP drop.
type FTPFetcher struct {
	opts    FTPOptions
	limiter *rate.Limiter
}

// NewFTPFetcher creates an FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PerSecond == 0 {
		opts.PerSecond = 2
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPFetcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.PerSecond), 1),
	}
}

// Pull downloads remote files with the given extension that are not already
// present in destDir. Returns the local paths of newly fetched files.
func (f *FTPFetcher) Pull(ctx context.Context, destDir, ext string) ([]string, error) {
	host := f.opts.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp: dial")
	}
	defer conn.Quit()

	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		return nil, eris.Wrap(err, "ftp: login")
	}

	entries, err := conn.List(f.opts.RemoteDir)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: list %s", f.opts.RemoteDir)
	}

	var fetched []string
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile || !strings.HasSuffix(e.Name, ext) {
			continue
		}
		local := filepath.Join(destDir, e.Name)
		if _, err := os.Stat(local); err == nil {
			continue // already pulled
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return fetched, eris.Wrap(err, "ftp: rate limit wait")
		}
		if err := f.download(conn, path.Join(f.opts.RemoteDir, e.Name), local); err != nil {
			return fetched, err
		}

		zap.L().Info("fetched source file", zap.String("file", e.Name))
		fetched = append(fetched, local)
	}
	return fetched, nil
}

// download retrieves one remote file to a local path, writing through a
// temp name so a partial transfer never looks like a complete source file.
func (f *FTPFetcher) download(conn *ftp.ServerConn, remote, local string) error {
	resp, err := conn.Retr(remote)
	if err != nil {
		return eris.Wrapf(err, "ftp: retrieve %s", remote)
	}
	defer resp.Close()

	tmp := local + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "ftp: create %s", tmp)
	}

	if _, err := io.Copy(file, resp); err != nil {
		file.Close()
		os.Remove(tmp)
		return eris.Wrapf(err, "ftp: write %s", tmp)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return eris.Wrapf(err, "ftp: close %s", tmp)
	}
	if err := os.Rename(tmp, local); err != nil {
		return eris.Wrapf(err, "ftp: finalize %s", local)
	}
	return nil
}
