package server

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// archiveInfo is one listed zip archive.
type archiveInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// handleListArchives lists the zip archives produced under the export
// directory, newest first.
func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.archiveDir)
	if err != nil {
		s.logger.Printf("[server] list archives: %v", err)
		writeError(w, http.StatusInternalServerError, "cannot read archive directory")
		return
	}

	archives := make([]archiveInfo, 0)
	for _, e := range entries {
		if e.IsDir() || !isArchiveName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		archives = append(archives, archiveInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Modified.After(archives[j].Modified)
	})
	writeJSON(w, http.StatusOK, archives)
}

// handleDownloadArchive streams one archive by name.
func (s *Server) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !isArchiveName(name) {
		writeError(w, http.StatusBadRequest, "not an archive name")
		return
	}

	path := filepath.Join(s.archiveDir, name)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, time.Time{}, f)
}

// isArchiveName accepts the pipeline's archive naming and nothing else, so
// the download handler can never traverse out of the archive directory.
func isArchiveName(name string) bool {
	return strings.HasPrefix(name, "archive_") &&
		strings.HasSuffix(name, ".zip") &&
		!strings.ContainsAny(name, `/\`) &&
		name == filepath.Base(name)
}
