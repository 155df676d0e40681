// Package ytdlp wraps the yt-dlp command-line video downloader.
package ytdlp
