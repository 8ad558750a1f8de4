package archive

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"os"

	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/crypt"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/pkg/fileutil"
)

// Archive layout:
//
//	MAGIC(4) | VERSION(1) | ALGO(1) | ENCRYPTED(1) |
//	[if encrypted: SALT(16) | NONCE(12)] |
//	MANIFEST_LEN(uvarint) | MANIFEST |
//	PAYLOAD_LEN(uvarint) | PAYLOAD |
//	AUTH_TAG(16)
//
// PAYLOAD is the compressed (and, if encrypted, sealed) concatenation of
// file contents in manifest order. For encrypted archives AUTH_TAG is the
// AES-GCM tag with everything before PAYLOAD as additional data, so a
// tampered header or manifest fails authentication exactly like a tampered
// payload. For plain archives AUTH_TAG is a truncated SHA-256 over the
// whole preceding stream, which keeps archives tamper-evident (though not
// cryptographically bound without a key).
var magic = [4]byte{'A', 'R', 'X', 'F'}

// FormatVersion is the current archive format version.
const FormatVersion = 1

// Suffix is the file name suffix for archives.
const Suffix = ".arx"

const (
	flagPlain     = 0
	flagEncrypted = 1
)

// Write produces an archive at path from the manifest entries and the raw
// (uncompressed) payload byte stream. The file appears under its final
// name only after a complete write, via temp file + rename.
func Write(path string, algo compress.Algorithm, password string, entries []Entry, payload []byte) error {
	codec, err := compress.New(algo)
	if err != nil {
		return err
	}
	compressed, err := codec.Encode(payload)
	if err != nil {
		return errors.Wrap(err, "compressing payload")
	}

	manifest := encodeManifest(entries)

	buf := bytes.NewBuffer(nil)
	buf.Write(magic[:])
	buf.WriteByte(FormatVersion)
	buf.WriteByte(byte(algo))

	encrypted := password != ""
	if encrypted {
		buf.WriteByte(flagEncrypted)

		salt, err := crypt.NewSalt()
		if err != nil {
			return err
		}
		nonce, err := crypt.NewNonce()
		if err != nil {
			return err
		}
		buf.Write(salt)
		buf.Write(nonce)

		buf.Write(binary.AppendUvarint(nil, uint64(len(manifest))))
		buf.Write(manifest)
		// GCM ciphertext length equals plaintext length, so the full
		// prefix is known before sealing and can serve as additional data.
		buf.Write(binary.AppendUvarint(nil, uint64(len(compressed))))

		key := crypt.DeriveKey(password, salt)
		ciphertext, tag, err := crypt.Seal(key, nonce, compressed, buf.Bytes())
		if err != nil {
			return errors.Wrap(err, "sealing payload")
		}
		buf.Write(ciphertext)
		buf.Write(tag)
	} else {
		buf.WriteByte(flagPlain)
		buf.Write(binary.AppendUvarint(nil, uint64(len(manifest))))
		buf.Write(manifest)
		buf.Write(binary.AppendUvarint(nil, uint64(len(compressed))))
		buf.Write(compressed)

		sum := sha256.Sum256(buf.Bytes())
		buf.Write(sum[:crypt.TagSize])
	}

	return fileutil.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

// Read parses and authenticates the archive at path, returning the
// manifest and the reconstructed raw payload stream.
//
// The authentication tag is verified before any payload byte is
// decompressed; a wrong password or any flipped bit yields
// ErrAuthenticationFailed. Structural damage discovered afterwards yields
// ErrCorruptArchive. An unknown magic or version yields
// ErrUnsupportedFormat.
func Read(path, password string) ([]Entry, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidPath, "reading archive: %v", err)
	}

	// Fixed header plus trailing tag is the minimum plausible archive.
	if len(data) < 7+crypt.TagSize {
		return nil, nil, errors.Wrap(errors.ErrUnsupportedFormat, "file too small")
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, nil, errors.Wrap(errors.ErrUnsupportedFormat, "bad magic")
	}
	if data[4] != FormatVersion {
		return nil, nil, errors.Wrapf(errors.ErrUnsupportedFormat, "version %d", data[4])
	}

	algo := compress.Algorithm(data[5])
	if !algo.Valid() {
		return nil, nil, errors.Wrapf(errors.ErrUnsupportedFormat, "algorithm %d", data[5])
	}

	var encrypted bool
	switch data[6] {
	case flagPlain:
	case flagEncrypted:
		encrypted = true
	default:
		return nil, nil, errors.Wrapf(errors.ErrUnsupportedFormat, "encryption flag %d", data[6])
	}

	rest := data[7:]
	var salt, nonce []byte
	if encrypted {
		if len(rest) < crypt.SaltSize+crypt.NonceSize {
			return nil, nil, errors.Wrap(errors.ErrCorruptArchive, "truncated salt/nonce")
		}
		salt = rest[:crypt.SaltSize]
		nonce = rest[crypt.SaltSize : crypt.SaltSize+crypt.NonceSize]
		rest = rest[crypt.SaltSize+crypt.NonceSize:]
	}

	// Every length field is bounded by what the file actually holds
	// before a single byte of it is trusted.
	manifestLen, n := binary.Uvarint(rest)
	if n <= 0 || manifestLen > uint64(len(rest)-n) {
		return nil, nil, errors.Wrap(errors.ErrCorruptArchive, "manifest length")
	}
	manifestRaw := rest[n : n+int(manifestLen)]
	rest = rest[n+int(manifestLen):]

	payloadLen, n := binary.Uvarint(rest)
	if n <= 0 || payloadLen > uint64(len(rest)-n) {
		return nil, nil, errors.Wrap(errors.ErrCorruptArchive, "payload length")
	}
	payloadRaw := rest[n : n+int(payloadLen)]
	rest = rest[n+int(payloadLen):]

	if len(rest) != crypt.TagSize {
		return nil, nil, errors.Wrapf(errors.ErrCorruptArchive, "trailing tag is %d bytes", len(rest))
	}
	tag := rest

	prefixLen := len(data) - len(payloadRaw) - crypt.TagSize
	prefix := data[:prefixLen]

	var compressed []byte
	if encrypted {
		if password == "" {
			return nil, nil, errors.Wrap(errors.ErrAuthenticationFailed, "archive is encrypted and no password was given")
		}
		key := crypt.DeriveKey(password, salt)
		compressed, err = crypt.Open(key, nonce, payloadRaw, tag, prefix)
		if err != nil {
			return nil, nil, err
		}
	} else {
		sum := sha256.Sum256(data[:len(data)-crypt.TagSize])
		if subtle.ConstantTimeCompare(sum[:crypt.TagSize], tag) != 1 {
			return nil, nil, errors.Wrap(errors.ErrAuthenticationFailed, "checksum mismatch")
		}
		compressed = payloadRaw
	}

	entries, err := decodeManifest(manifestRaw)
	if err != nil {
		return nil, nil, err
	}

	codec, err := compress.New(algo)
	if err != nil {
		return nil, nil, err
	}
	payload, err := codec.Decode(compressed)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrCorruptArchive, "decompressing payload: %v", err)
	}

	// Manifest sizes must account for exactly the payload we decoded.
	var total uint64
	for i := range entries {
		if entries[i].Kind == KindFile {
			total += entries[i].Size
		}
	}
	if total != uint64(len(payload)) {
		return nil, nil, errors.Wrapf(errors.ErrCorruptArchive,
			"manifest sizes sum to %d but payload is %d bytes", total, len(payload))
	}

	return entries, payload, nil
}
