// Package upload menyimpan bukti transfer ke disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"peternakan-backend/internal/apperror"

	"github.com/google/uuid"
)

const ProofDir = "bukti-transfer"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Store struct {
	Root    string // mis. "uploads"
	MaxSize int64
}

func NewStore(root string, maxSize int64) *Store {
	return &Store{Root: root, MaxSize: maxSize}
}

// Save memvalidasi tipe (dari isi file, bukan nama) dan ukuran, lalu
// menyimpan file sebagai bukti-<uuid><ext>. Path relatif terhadap Root
// yang dikembalikan, mis. "bukti-transfer/bukti-....jpg".
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperror.Validation("bukti_transfer", "bukti transfer wajib diunggah")
	}
	if s.MaxSize > 0 && fh.Size > s.MaxSize {
		return "", apperror.Validation("bukti_transfer", fmt.Sprintf("ukuran file maksimal %d MB", s.MaxSize/(1024*1024)))
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ext, ok := allowedTypes[http.DetectContentType(head[:n])]
	if !ok {
		return "", apperror.Validation("bukti_transfer", "hanya file gambar (jpeg, jpg, png, webp) yang diizinkan")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	dir := filepath.Join(s.Root, ProofDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	rel := filepath.ToSlash(filepath.Join(ProofDir, "bukti-"+uuid.NewString()+ext))
	dst, err := os.Create(filepath.Join(s.Root, rel))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return rel, nil
}

// Remove menghapus file yang sudah disimpan Save. File yang sudah tidak ada
// tidak dianggap error.
func (s *Store) Remove(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[upload] gagal hapus %s: %v", rel, err)
	}
}
