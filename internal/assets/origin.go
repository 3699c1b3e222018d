package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/weatherwidget/internal/httputil"
)

// ErrMissing is returned when an asset does not exist at the origin.
var ErrMissing = errors.New("asset missing")

// Origin is where image assets are loaded from.
type Origin interface {
	Open(ctx context.Context, assetPath string) (io.ReadCloser, error)
	String() string
}

// NewOrigin parses an origin spec: a filesystem directory, an http(s) base URL, or
// an ftp://[user:pass@]host[:port]/base URL.
func NewOrigin(spec string) (Origin, error) {
	if spec == "" {
		return nil, errors.New("empty asset origin")
	}
	if !strings.Contains(spec, "://") {
		return DirOrigin(spec), nil
	}

	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse asset origin: %w", err)
	}
	switch u.Scheme {
	case "file":
		return DirOrigin(u.Path), nil
	case "http", "https":
		return &httpOrigin{base: u, client: httputil.NewClient(30 * time.Second), maxElapsed: 30 * time.Second}, nil
	case "ftp":
		return newFTPOrigin(u), nil
	default:
		return nil, fmt.Errorf("unsupported asset origin scheme %q", u.Scheme)
	}
}

// DirOrigin serves assets from a local directory laid out like the site root.
type DirOrigin string

func (d DirOrigin) Open(_ context.Context, assetPath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(string(d), filepath.FromSlash(assetPath)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", assetPath, ErrMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", assetPath, err)
	}
	return f, nil
}

func (d DirOrigin) String() string {
	return string(d)
}

type httpOrigin struct {
	base       *url.URL
	client     *http.Client
	maxElapsed time.Duration
}

func (h *httpOrigin) String() string {
	return h.base.String()
}

func (h *httpOrigin) Open(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	u := *h.base
	u.Path = path.Join("/", h.base.Path, assetPath)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("fetch %s: %w", assetPath, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%s: %w", assetPath, ErrMissing))
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", assetPath, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", assetPath, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", assetPath, err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = h.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

type ftpOrigin struct {
	addr     string
	user     string
	password string
	basePath string
}

func newFTPOrigin(u *url.URL) *ftpOrigin {
	o := &ftpOrigin{
		addr:     u.Host,
		user:     "anonymous",
		password: "anonymous",
		basePath: u.Path,
	}
	if u.Port() == "" {
		o.addr = u.Host + ":21"
	}
	if u.User != nil {
		o.user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			o.password = p
		}
	}
	return o
}

func (f *ftpOrigin) String() string {
	return "ftp://" + f.addr + f.basePath
}

func (f *ftpOrigin) Open(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	remote := path.Join("/", f.basePath, assetPath)

	var body []byte
	operation := func() error {
		conn, err := ftp.Dial(f.addr, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login(f.user, f.password); err != nil {
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}

		resp, err := conn.Retr(remote)
		if err != nil {
			var tpErr *textproto.Error
			if errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable {
				return backoff.Permanent(fmt.Errorf("%s: %w", assetPath, ErrMissing))
			}
			return fmt.Errorf("ftp retr %s: %w", remote, err)
		}
		defer resp.Close()

		body, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("ftp read %s: %w", remote, err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
