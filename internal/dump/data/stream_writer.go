package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lk2023060901/rrdump/internal/dump/biz"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// tempPattern 临时文件名模式, 与目标文件位于同一目录
const tempPattern = ".rrdump-*.tmp"

// defaultMode 目标文件不存在时使用的权限
const defaultMode os.FileMode = 0o644

// streamWriter 先写入临时文件再重命名覆盖目标文件
type streamWriter struct {
	fs     afero.Fs
	logger *logger.Logger
}

// NewStreamWriter 创建写入器
func NewStreamWriter(fs afero.Fs, log *logger.Logger) biz.StreamWriter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &streamWriter{fs: fs, logger: log.Named("writer")}
}

// Write 复制数据流到 dest. 任何一步失败都会删除临时文件, dest 保持原样.
func (w *streamWriter) Write(r io.Reader, dest string) (int64, error) {
	dir := filepath.Dir(dest)

	tmp, err := afero.TempFile(w.fs, dir, tempPattern)
	if err != nil {
		return 0, apperrors.NewIOError(err, fmt.Sprintf("cannot create temporary file next to '%s'", dest))
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rmErr := w.fs.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			w.logger.Warn("failed to remove temporary file",
				zap.String("file", tmpName),
				zap.Error(rmErr),
			)
		}
	}()

	src := &sourceReader{r: r}
	n, err := io.Copy(tmp, src)
	if src.err != nil {
		return n, apperrors.NewTransportError(src.err, fmt.Sprintf("reading export failed after %d bytes: %v", n, src.err))
	}
	if err != nil {
		return n, apperrors.NewIOError(err, fmt.Sprintf("writing '%s' failed after %d bytes", dest, n))
	}
	if err := tmp.Sync(); err != nil {
		return n, apperrors.NewIOError(err, fmt.Sprintf("syncing '%s'", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return n, apperrors.NewIOError(err, fmt.Sprintf("closing '%s'", tmpName))
	}
	if err := w.fs.Chmod(tmpName, w.destMode(dest)); err != nil {
		return n, apperrors.NewIOError(err, fmt.Sprintf("chmod '%s'", tmpName))
	}
	if err := w.fs.Rename(tmpName, dest); err != nil {
		return n, apperrors.NewIOError(err, fmt.Sprintf("replacing '%s'", dest))
	}
	committed = true

	w.logger.Debug("dump written",
		zap.String("file", dest),
		zap.Int64("bytes", n),
	)
	return n, nil
}

// destMode 沿用已有目标文件的权限, 目标不存在时为 defaultMode
func (w *streamWriter) destMode(dest string) os.FileMode {
	info, err := w.fs.Stat(dest)
	if err != nil {
		return defaultMode
	}
	return info.Mode().Perm()
}

// sourceReader 记录读取数据流时的错误, 与写入本地文件的错误区分开
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
