package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"
)

// NewFileStore 以 basePath 为根目录构建磁盘缓存，整站复用一份实例。
// 每个 key 对应一个正文文件，文件的 ModTime 即为绝对过期时间。
func NewFileStore(basePath string, opts ...FileOption) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	s := &fileStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FileOption 调整磁盘后端行为。
type FileOption func(*fileStore)

// WithFileClock 替换磁盘后端使用的时钟。
func WithFileClock(now func() time.Time) FileOption {
	return func(s *fileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// fileStore 通过 entryLock 避免同一 key 并发写入，同时复用 basePath。
type fileStore struct {
	basePath string
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Get(ctx context.Context, key string) (mo.Option[string], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[string](), newError("get", key, err)
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return mo.None[string](), newError("get", key, err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mo.None[string](), nil
		}
		return mo.None[string](), newError("get", key, err)
	}
	if info.IsDir() {
		return mo.None[string](), nil
	}

	entry := Entry{Key: key, ExpiresAt: info.ModTime()}
	if entry.Expired(s.now()) {
		return mo.None[string](), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mo.None[string](), nil
		}
		return mo.None[string](), newError("get", key, err)
	}
	return mo.Some(string(data)), nil
}

func (s *fileStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkSet(key, ttl); err != nil {
		return err
	}

	unlock := s.lockEntry(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return newError("set", key, err)
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return newError("set", key, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return newError("set", key, err)
	}
	tempName := tempFile.Name()

	_, err = tempFile.WriteString(value)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return newError("set", key, err)
	}

	expiresAt := s.now().Add(ttl)
	if err := os.Chtimes(tempName, expiresAt, expiresAt); err != nil {
		os.Remove(tempName)
		return newError("set", key, err)
	}
	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return newError("set", key, err)
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// entryPath 将 key 转义为单层文件名，拒绝跳出 basePath 的写法。
func (s *fileStore) entryPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	name := url.PathEscape(key)
	if name == "." || name == ".." || strings.HasPrefix(name, ".cache-") {
		return "", ErrInvalidKey
	}

	filePath := filepath.Join(s.basePath, name)
	if filepath.Dir(filePath) != s.basePath {
		return "", ErrInvalidKey
	}
	return filePath, nil
}
