// Package gallerydl wraps the gallery-dl command-line image downloader.
package gallerydl
