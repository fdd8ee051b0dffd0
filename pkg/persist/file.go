package persist

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileMode is the permission used for persisted state files.
const DefaultFileMode os.FileMode = 0o600

const dirMode os.FileMode = 0o750

// WriteFile encodes state with codec and atomically replaces path with the
// result: the bytes go to a temporary file in the same directory, which is
// synced and then renamed over path. Readers never observe a partial file.
func WriteFile(path string, codec Codec, state any) error {
	var buf bytes.Buffer

	err := codec.Encode(&buf, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return WriteFileAtomic(path, buf.Bytes(), DefaultFileMode)
}

// ReadFile reads path and decodes it into state, which must be a pointer.
// Each validator sees the raw bytes before decoding.
func ReadFile(path string, codec Codec, state any, validators ...Validator) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	for _, validate := range validators {
		err = validate(data)
		if err != nil {
			return fmt.Errorf("validate state: %w", err)
		}
	}

	err = codec.Decode(bytes.NewReader(data), state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

// WriteFileAtomic writes data to path through a synced temporary file and
// a rename, then syncs the parent directory.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, dirMode)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		_ = tmp.Close()

		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	_, err = tmp.Write(data)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	err = tmp.Chmod(perm)
	if err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	err = tmp.Sync()
	if err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open state dir: %w", err)
	}
	defer d.Close()

	err = d.Sync()
	if err != nil {
		return fmt.Errorf("sync state dir: %w", err)
	}

	return nil
}
