package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/jpeg"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	_ "image/gif"
	_ "image/png"
)

// StoredFile describes a persisted attachment.
type StoredFile struct {
	URL          string
	ThumbnailURL *string
	PublicID     string
	MimeType     string
	SizeBytes    int64
}

// FileStorageService persists complaint attachments to local disk and
// produces thumbnails for image uploads. PublicID is the relative storage
// path and doubles as the deletion handle.
type FileStorageService interface {
	Upload(reader io.Reader, originalFilename string, declaredSize int64) (*StoredFile, error)
	Delete(publicID string) error
}

type FileStorageServiceImpl struct {
	baseDir      string
	maxFileSize  int64
	publicPrefix string
}

var allowedAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
}

var imageAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ErrUnsupportedFileType is returned when the extension is not on the allow list.
var ErrUnsupportedFileType = fmt.Errorf("invalid file type, only JPG, PNG, GIF, WEBP, PDF, DOC, DOCX, XLS, XLSX, PPT, PPTX, and TXT files are allowed")

// ErrFileSizeExceeded is returned when the upload is larger than the configured limit.
var ErrFileSizeExceeded = fmt.Errorf("file size exceeds the limit")

// NewFileStorageService creates a disk-backed file storage service.
// baseDir is the root upload directory, publicPrefix the URL path under
// which the directory is served.
func NewFileStorageService(baseDir, publicPrefix string, maxFileSize int64) FileStorageService {
	if maxFileSize <= 0 {
		maxFileSize = utils.MaxUploadFileSize
	}
	return &FileStorageServiceImpl{
		baseDir:      baseDir,
		maxFileSize:  maxFileSize,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
	}
}

func (s *FileStorageServiceImpl) Upload(reader io.Reader, originalFilename string, declaredSize int64) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !allowedAttachmentExts[ext] {
		return nil, ErrUnsupportedFileType
	}
	if declaredSize > s.maxFileSize {
		return nil, ErrFileSizeExceeded
	}

	dateDir := utils.UTCNow().Format("2006-01-02")
	dir := filepath.Join(s.baseDir, dateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	if mimeType == "application/octet-stream" {
		if fromExt := mime.TypeByExtension(ext); fromExt != "" {
			mimeType = fromExt
		}
	}

	filename := uuid.New().String() + ext
	fullPath := filepath.Join(dir, filename)
	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, err
	}

	fullReader := io.MultiReader(bytes.NewReader(head), reader)
	limited := io.LimitReader(fullReader, s.maxFileSize+1)
	written, err := io.Copy(dst, limited)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, err
	}
	if written > s.maxFileSize {
		_ = os.Remove(fullPath)
		return nil, ErrFileSizeExceeded
	}

	publicID := filepath.ToSlash(filepath.Join(dateDir, filename))
	stored := &StoredFile{
		URL:       s.publicPrefix + "/" + publicID,
		PublicID:  publicID,
		MimeType:  mimeType,
		SizeBytes: written,
	}

	if imageAttachmentExts[ext] {
		// Thumbnail failure never fails the upload
		if thumbID, err := s.writeThumbnail(fullPath, dir, dateDir, filename); err == nil {
			thumbURL := s.publicPrefix + "/" + thumbID
			stored.ThumbnailURL = &thumbURL
		}
	}

	return stored, nil
}

func (s *FileStorageServiceImpl) Delete(publicID string) error {
	cleanPath, err := s.sanitizePath(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(cleanPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStorageServiceImpl) sanitizePath(publicID string) (string, error) {
	if publicID == "" {
		return "", fmt.Errorf("empty file id")
	}
	cleaned := filepath.Clean(filepath.FromSlash(publicID))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid file id: %s", publicID)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func (s *FileStorageServiceImpl) writeThumbnail(srcPath, dir, dateDir, filename string) (string, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", err
	}

	thumb := resizeAttachmentImage(img, 256)
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	thumbName := base + "_thumb.jpg"
	thumbPath := filepath.Join(dir, thumbName)

	out, err := os.Create(thumbPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 75}); err != nil {
		_ = os.Remove(thumbPath)
		return "", err
	}

	return filepath.ToSlash(filepath.Join(dateDir, thumbName)), nil
}

func resizeAttachmentImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		nh = maxDim
		nw = int(float64(w) * float64(maxDim) / float64(h))
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
