package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/retailpulse/stocksense/internal/ingest"
)

// DatasetImporter receives the parsed dataset after a sync.
type DatasetImporter interface {
	ImportDataset(ctx context.Context, ds *ingest.Dataset) error
}

type Handler struct {
	service    *Service
	downloader *Downloader
	importer   DatasetImporter
	opts       DownloadOptions
}

func NewHandler(service *Service, importer DatasetImporter, opts DownloadOptions) *Handler {
	return &Handler{
		service:    service,
		downloader: NewDownloader(service),
		importer:   importer,
		opts:       opts,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/sync", h.SyncDataset).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.service.ListFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=data.csv")

	if err := h.service.DownloadFile(fileID, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SyncDataset pulls the dataset folder from Drive, classifies the
// files and hands the parsed dataset to the importer.
func (h *Handler) SyncDataset(w http.ResponseWriter, r *http.Request) {
	opts := h.opts
	if folderID := r.URL.Query().Get("folderId"); folderID != "" {
		opts.FolderID = folderID
	}

	paths, err := h.downloader.DownloadFolderCSV(r.Context(), opts)
	if err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}

	ordersPath, inventoryPath, pendingPath, err := PickDatasetPaths(paths)
	if err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	ds, err := ingest.LoadDataset(ordersPath, inventoryPath, pendingPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	if err := h.importer.ImportDataset(r.Context(), ds); err != nil {
		http.Error(w, fmt.Sprintf("import failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Info().
		Int("files", len(paths)).
		Int("orders", len(ds.Orders)).
		Int("inventory", len(ds.Inventory)).
		Int("pending", len(ds.Pending)).
		Msg("drive dataset synced")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "success",
		"files":     len(paths),
		"orders":    len(ds.Orders),
		"inventory": len(ds.Inventory),
		"pending":   len(ds.Pending),
	})
}
