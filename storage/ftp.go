// path: storage/ftp.go
package storage

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPStore pushes report images to an FTP server fronted by a web host.
type FTPStore struct {
	host     string
	port     string
	user     string
	password string
	baseURL  string

	mu   sync.Mutex
	conn *ftp.ServerConn
}

// NewFTPStore returns a lazily-connecting FTP image store.
func NewFTPStore(host, port, user, password, baseURL string) *FTPStore {
	return &FTPStore{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (s *FTPStore) Kind() string { return "ftp" }

func (s *FTPStore) connect() error {
	if s.conn != nil {
		return nil
	}
	conn, err := ftp.Dial(s.host+":"+s.port, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("ftp dial: %w", err)
	}
	if err := conn.Login(s.user, s.password); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("ftp login: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *FTPStore) Put(reportID, kind string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return "", err
	}

	remoteDir := "reports/" + sanitize(reportID)
	_ = s.conn.MakeDir("reports")
	_ = s.conn.MakeDir(remoteDir)

	name := fmt.Sprintf("%s_%s.jpg", sanitize(kind), time.Now().Format("20060102_150405"))
	remotePath := remoteDir + "/" + name

	if err := s.conn.Stor(remotePath, bytes.NewReader(data)); err != nil {
		// one reconnect attempt; FTP control connections go stale
		_ = s.conn.Quit()
		s.conn = nil
		if err := s.connect(); err != nil {
			return "", err
		}
		if err := s.conn.Stor(remotePath, bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("ftp store: %w", err)
		}
	}

	return s.baseURL + "/" + remotePath, nil
}

func (s *FTPStore) Delete(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}
	remotePath := strings.TrimPrefix(url, s.baseURL+"/")
	return s.conn.Delete(remotePath)
}

// LocalPath never resolves; FTP images are fetched over HTTP.
func (s *FTPStore) LocalPath(string) (string, bool) { return "", false }

// Close quits the control connection.
func (s *FTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	defer func() { s.conn = nil }()
	return s.conn.Quit()
}
