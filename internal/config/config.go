package config

import "os"

type Config struct {
	Port string

	// Detector selects the detection backend: "pigo" (default, pure Go),
	// "yunet" (ONNX), or "remote" (unix-socket service).
	Detector string

	CascadePath      string
	PuplocPath       string
	YuNetModelPath   string
	OnnxLibraryPath  string
	RemoteSocketPath string

	FontPath   string
	StickerDir string

	GalleryDir string
	ShareDir   string
	SlotsPath  string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Detector:         getEnv("DETECTOR", "pigo"),
		CascadePath:      getEnv("CASCADE_PATH", "models/facefinder"),
		PuplocPath:       getEnv("PUPLOC_PATH", "models/puploc"),
		YuNetModelPath:   getEnv("YUNET_MODEL_PATH", "models/yunet.onnx"),
		OnnxLibraryPath:  getEnv("ONNX_LIBRARY_PATH", "libonnxruntime.so"),
		RemoteSocketPath: getEnv("REMOTE_SOCKET_PATH", "/tmp/facemoji-detector.sock"),
		FontPath:         getEnv("FONT_PATH", ""),
		StickerDir:       getEnv("STICKER_DIR", ""),
		GalleryDir:       getEnv("GALLERY_DIR", "data/gallery/Facemoji"),
		ShareDir:         getEnv("SHARE_DIR", "data/share"),
		SlotsPath:        getEnv("SLOTS_PATH", "data/slots.json"),
	}
}

func getEnv(k, d string) string {
	if val, ok := os.LookupEnv(k); ok {
		return val
	}
	return d
}
