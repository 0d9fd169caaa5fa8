package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	documentName = "coin_type.html"
	imagesDir    = "images"
	backupDir    = "bkp"
)

// Layout maps coins onto the scraped catalog directory tree:
//
//	{root}/{issuerSlug}/{coinSlug}_{coinID}/coin_type.html
//	{root}/{issuerSlug}/{coinSlug}_{coinID}/images/
//	{root}/{issuerSlug}/{coinSlug}_{coinID}/bkp/
type Layout struct {
	Root string
}

// CoinDir returns the directory owning a coin's document and images.
func (l Layout) CoinDir(c *Coin) string {
	return filepath.Join(l.Root, c.IssuerSlug, fmt.Sprintf("%s_%d", c.Slug, c.ID))
}

func (l Layout) DocumentPath(c *Coin) string {
	return filepath.Join(l.CoinDir(c), documentName)
}

func (l Layout) ImagesDir(c *Coin) string {
	return filepath.Join(l.CoinDir(c), imagesDir)
}

func (l Layout) BackupDir(c *Coin) string {
	return filepath.Join(l.CoinDir(c), backupDir)
}

// ImagePath resolves an image file name, or returns "" for an empty name.
func (l Layout) ImagePath(c *Coin, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Join(l.ImagesDir(c), name)
}

// Resolve fills the absolute image paths of every sample of c.
func (l Layout) Resolve(c *Coin) {
	for i := range c.Samples {
		c.Samples[i].ObversePath = l.ImagePath(c, c.Samples[i].ObverseImage)
		c.Samples[i].ReversePath = l.ImagePath(c, c.Samples[i].ReverseImage)
	}
}
