// Package config loads dungeon's configuration.
//
// # Resolution Order
//
// Each setting is taken from the first source that provides a non-blank
// value:
//
//  1. Environment variable (DUNGEON_ prefix)
//  2. TOML file (~/.config/dungeon/config.toml unless a path is given)
//  3. Built-in default
//
// A missing config file is not an error, so dungeon runs out of the box
// against the local proxy.
//
// # Settings
//
//	TOML key                   Environment                          Default
//	api_base                   DUNGEON_CHAR_API                     http://127.0.0.1:8787/api/characters
//	cloudinary_upload_url      DUNGEON_CLOUDINARY_UPLOAD_URL        (uploads disabled)
//	cloudinary_upload_preset   DUNGEON_CLOUDINARY_UPLOAD_PRESET     (uploads disabled)
//	cache_path                 DUNGEON_CACHE_PATH                   ~/.local/share/dungeon/cache.db
//	log_dir                    DUNGEON_LOG_DIR                      ~/.local/share/dungeon/logs
//	fallback                   DUNGEON_FALLBACK                     cache
//	proxy_listen               DUNGEON_PROXY_LISTEN                 127.0.0.1:8787
//	proxy_upstream             DUNGEON_PROXY_UPSTREAM               hosted archive
//
// Tilde paths are expanded and a trailing slash on api_base is dropped.
// Image uploads are enabled only when both Cloudinary settings are set.
//
// # Example
//
//	api_base = "https://archive.example.com/api/characters"
//	fallback = "sample"
//	cloudinary_upload_url = "https://api.cloudinary.com/v1_1/demo/image/upload"
//	cloudinary_upload_preset = "unsigned"
package config
