package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mymanga/internal/buildinfo"
	"mymanga/internal/config"
	"mymanga/internal/download"
	"mymanga/internal/reader"
	"mymanga/internal/sanitize"
	"mymanga/internal/templater"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a specified chapter as cbz or pdf",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		if _, err := uuid.Parse(chapterID); err != nil {
			fmt.Printf("Invalid chapter id %q: %v\n", chapterID, err)
			return
		}

		f, err := download.ParseFormat(format)
		if err != nil {
			fmt.Println("Invalid format:", err)
			return
		}

		if info, err := os.Stat(downloadDirectory); err != nil || !info.IsDir() {
			fmt.Printf("Invalid location: %q is not a directory\n", downloadDirectory)
			return
		}

		cfg := config.New(configPath, buildinfo.Version)
		log := zerolog.Nop()

		catalog := newCatalog(cfg.Config, log)
		resolver := reader.NewResolver(catalog, log)

		chapter, err := resolver.Resolve(ctx, chapterID)
		if err != nil {
			fmt.Printf("Failed to find chapter %s: %v\n", chapterID, err)
			return
		}

		template := naming
		if template == "" {
			template = cfg.Config.NamingTemplate
		}
		templatedName := templater.New(chapter).ExecTemplate(template)

		contentPath := filepath.Join(downloadDirectory, sanitize.Filename(chapter.MangaTitle), sanitize.Filename(templatedName)+"."+string(f))

		if _, err := os.Stat(contentPath); err == nil {
			fmt.Printf("Chapter has already been downloaded, skipping %q\n", templatedName)
			return
		}

		fmt.Printf("Downloading %q...\n", templatedName)

		archive, cleanup, err := newDownloader(cfg.Config, log).Chapter(ctx, chapter, f)
		if err != nil {
			fmt.Printf("Failed to download chapter %q: %v\n", templatedName, err)
			return
		}
		defer cleanup()

		if err := moveFile(archive, contentPath); err != nil {
			fmt.Printf("Failed to save chapter %q: %v\n", templatedName, err)
			return
		}

		fmt.Printf("Finished downloading %q\n", templatedName)
	},
}

// moveFile copies src to dst, creating the parent directories. Renames fail across filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
