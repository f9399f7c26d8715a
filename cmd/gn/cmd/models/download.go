package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"green-needle/internal/app/progress"
	"green-needle/internal/app/util/files"
	"green-needle/internal/config"
)

// Models are fetched from the whisper.cpp model mirror; the same files its
// own download script serves.
const downloadURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-%s.bin"

var downloadable = buildDownloadable()

func buildDownloadable() []string {
	names := []string{"large", "large-v1", "large-v2", "large-v3"}
	for _, size := range []string{"tiny", "base", "small", "medium"} {
		names = append(names, size, size+".en")
	}
	return names
}

// ggmlName maps a user-facing size to the published file name. Plain
// "large" means the newest large checkpoint.
func ggmlName(name string) string {
	if name == "large" {
		return "large-v3"
	}
	return name
}

func download(ctx context.Context, cfg *config.Config, name string) error {
	name = strings.TrimSpace(name)
	if !lo.Contains(downloadable, name) {
		return fmt.Errorf("models: unknown model %q (available: %s)", name, strings.Join(downloadable, ", "))
	}

	dest := modelPath(cfg, name)
	if _, err := os.Stat(dest); err == nil {
		fmt.Printf("already downloaded: %s\n", dest)
		return nil
	}
	if err := files.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	url := fmt.Sprintf(downloadURL, ggmlName(name))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("models: build request: %w", err)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return fmt.Errorf("models: fetch %s: %w", url, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("models: fetch %s: unexpected status %s", url, response.Status)
	}

	manager := progress.NewManager(progress.Config{Enabled: progress.ShouldShow(false) && response.ContentLength > 0})
	bar := manager.ByteBar(response.ContentLength, name)
	body := bar.ProxyReader(response.Body)
	defer body.Close()

	// Download into a scratch file so an interrupted fetch never leaves a
	// truncated model behind.
	partial := dest + ".part"
	out, err := os.Create(partial)
	if err != nil {
		manager.Shutdown()
		return fmt.Errorf("models: create %s: %w", partial, err)
	}
	_, copyErr := io.Copy(out, body)
	closeErr := out.Close()
	manager.Wait()
	if copyErr != nil {
		os.Remove(partial)
		return fmt.Errorf("models: download %s: %w", name, copyErr)
	}
	if closeErr != nil {
		os.Remove(partial)
		return fmt.Errorf("models: write %s: %w", partial, closeErr)
	}
	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return fmt.Errorf("models: move %s into place: %w", partial, err)
	}

	fmt.Printf("downloaded: %s\n", dest)
	return nil
}
