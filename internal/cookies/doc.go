// Package cookies exports browser cookies into the Netscape cookie file
// format the download tools consume. Firefox's cookies.sqlite is read via
// a copy since the browser keeps the live database locked.
package cookies
