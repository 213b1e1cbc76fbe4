package server

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

type upload struct {
	contentType string
	data        []byte
	storedAt    time.Time
}

// uploadStore keeps post images in memory for the life of the process
type uploadStore struct {
	files map[string]upload
	lock  sync.RWMutex
}

func newUploadStore() *uploadStore {
	return &uploadStore{files: make(map[string]upload)}
}

func (u *uploadStore) put(name, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	u.lock.Lock()
	defer u.lock.Unlock()
	u.files[name] = upload{contentType: contentType, data: data, storedAt: time.Now()}
	return nil
}

func (u *uploadStore) get(name string) (upload, bool) {
	u.lock.RLock()
	defer u.lock.RUnlock()
	f, ok := u.files[name]
	return f, ok
}

// UploadHandler serves stored post images
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("file")
		f, ok := s.uploads.get(name)
		if !ok {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", f.contentType)
		http.ServeContent(w, r, name, f.storedAt, bytes.NewReader(f.data))
	}
}
