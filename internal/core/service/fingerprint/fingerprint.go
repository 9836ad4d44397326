package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"ecolink/internal/core/domain"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultChunkSize  = 64 * 1024
	DefaultSniffBytes = 3072

	octetStream = "application/octet-stream"
)

// Fingerprinter hashes a stream in fixed-size chunks and sniffs its media type
// from the leading window. Memory use is bounded by chunkSize + sniffBytes.
type Fingerprinter struct {
	chunkSize  int
	sniffBytes int
	maxBytes   int64
}

// New creates a Fingerprinter. maxBytes <= 0 disables the size bound.
func New(chunkSize, sniffBytes int, maxBytes int64) *Fingerprinter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if sniffBytes <= 0 {
		sniffBytes = DefaultSniffBytes
	}
	return &Fingerprinter{chunkSize: chunkSize, sniffBytes: sniffBytes, maxBytes: maxBytes}
}

// Fingerprint consumes r and returns its SHA-256, byte count and media type.
// declaredMime is used when sniffing is inconclusive.
func (f *Fingerprinter) Fingerprint(r io.Reader, declaredMime string) (domain.Fingerprint, error) {
	hasher := sha256.New()

	header := make([]byte, f.sniffBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return domain.Fingerprint{}, readError(err)
	}
	header = header[:n]
	hasher.Write(header)
	size := int64(n)

	if f.maxBytes > 0 && size > f.maxBytes {
		return domain.Fingerprint{}, fmt.Errorf("%w: more than %d bytes", domain.ErrContentTooLarge, f.maxBytes)
	}

	if n == f.sniffBytes {
		buf := make([]byte, f.chunkSize)
		for {
			read, readErr := r.Read(buf)
			if read > 0 {
				hasher.Write(buf[:read])
				size += int64(read)
				if f.maxBytes > 0 && size > f.maxBytes {
					return domain.Fingerprint{}, fmt.Errorf("%w: more than %d bytes", domain.ErrContentTooLarge, f.maxBytes)
				}
			}
			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				return domain.Fingerprint{}, readError(readErr)
			}
		}
	}

	return domain.Fingerprint{
		Hash:      hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes: size,
		MimeType:  DetectMimeType(header, declaredMime),
	}, nil
}

// DetectMimeType sniffs magic numbers in header and falls back to declared
// when detection only yields the generic binary type.
func DetectMimeType(header []byte, declared string) string {
	detected := baseType(mimetype.Detect(header).String())
	if detected != "" && detected != octetStream {
		return detected
	}
	if d := baseType(declared); d != "" {
		return d
	}
	return octetStream
}

func baseType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

func readError(err error) error {
	if errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrStorageMisconfigured) || errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: read interrupted: %w", domain.ErrStorageUnavailable, err)
}
