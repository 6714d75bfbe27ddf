package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDangerousClasses are the labels that raise an alarm. The first group
// comes from COCO, the second from ImageNet, "weapon" is the catch-all label
// of custom-trained weights.
var DefaultDangerousClasses = []string{
	"knife", "scissors",
	"acoustic guitar", "assault rifle, assault gun", "assault rifle", "assault gun",
	"bulletproof vest", "chainsaw", "hammer", "hatchet", "military uniform",
	"mortar", "revolver", "rifle",
	"weapon",
}

// DefaultTargetCategories is the COCO category subset kept by the dataset tool.
var DefaultTargetCategories = []string{
	"backpack", "book", "bottle", "cell phone", "frisbee",
	"handbag", "knife", "laptop", "person", "scissors",
	"skateboard", "skis", "snowboard", "sports ball",
	"suitcase", "tennis racket", "umbrella",
}

// Policy holds the detection style and alarm thresholds.
type Policy struct {
	DangerousClasses []string
	HighConfidence   float64 // boxes at or above are "high" tier
	AlarmConfidence  float64 // dangerous boxes at or above raise the alarm; also the "medium" tier floor
}

// Inference holds the model input and post-processing parameters.
type Inference struct {
	ModelPath           string
	ClassesPath         string
	InputSize           int
	ConfidenceThreshold float32
	IoUThreshold        float32
}

type Config struct {
	CameraName   string
	CameraDevice int
	WindowTitle  string

	Inference Inference
	Policy    Policy

	AlarmSound       string
	AlarmPlayer      string // empty picks the first available system player
	AlarmQueueSize   int
	AlarmWSPort      int // 0 disables the alarm viewer
	SnapshotDir      string
	SnapshotLimit    int // snapshots buffered per camera between flushes
	SnapshotFlush    int // seconds
	DatabasePath     string
	LogDirectory     string
	AnnotationFile   string
	DatasetDir       string
	TargetCategories []string
	ShowProgress     bool
}

// Load reads .env (if any) and the process environment. Every value falls back
// to the defaults the tools shipped with.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CameraName:   getEnv("CAMERA_NAME", "webcam"),
		CameraDevice: getEnvAsInt("CAMERA_DEVICE", 0),
		WindowTitle:  getEnv("WINDOW_TITLE", "YOLOv5 Detection"),
		Inference: Inference{
			ModelPath:           getEnv("MODEL_PATH", filepath.Join("runs", "train", "exp", "weights", "best.onnx")),
			ClassesPath:         getEnv("CLASSES_PATH", filepath.Join("data", "classes.yaml")),
			InputSize:           getEnvAsInt("INPUT_SIZE", 640),
			ConfidenceThreshold: float32(getEnvAsFloat("CONF_THRESHOLD", 0.25)),
			IoUThreshold:        float32(getEnvAsFloat("IOU_THRESHOLD", 0.45)),
		},
		Policy: Policy{
			DangerousClasses: getEnvAsList("DANGEROUS_CLASSES", DefaultDangerousClasses),
			HighConfidence:   getEnvAsFloat("HIGH_CONFIDENCE", 0.75),
			AlarmConfidence:  getEnvAsFloat("ALARM_CONFIDENCE", 0.5),
		},
		AlarmSound:       getEnv("ALARM_SOUND", "alarm_sound.mp3"),
		AlarmPlayer:      getEnv("ALARM_PLAYER", ""),
		AlarmQueueSize:   getEnvAsInt("ALARM_QUEUE_SIZE", 16),
		AlarmWSPort:      getEnvAsInt("ALARM_WS_PORT", 0),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotLimit:    getEnvAsInt("SNAPSHOT_LIMIT", 10),
		SnapshotFlush:    getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", 30),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "alarms.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		AnnotationFile:   getEnv("ANNOTATION_FILE", filepath.Join("annotations", "annotations", "instances_train2017.json")),
		DatasetDir:       getEnv("DATASET_OUTPUT_DIR", "filtered_dataset"),
		TargetCategories: getEnvAsList("TARGET_CATEGORIES", DefaultTargetCategories),
		ShowProgress:     getEnvAsBool("SHOW_PROGRESS", true),
	}
}

// AnnotationOutput is where the filtered annotation document is written.
func (c *Config) AnnotationOutput() string {
	return filepath.Join(c.DatasetDir, "annotations", "filtered_annotations.json")
}

// ImagesOutput is the directory downloaded dataset images land in.
func (c *Config) ImagesOutput() string {
	return filepath.Join(c.DatasetDir, "images")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value; "assault rifle, assault gun"
// style entries can't be expressed this way, use ';' as the separator instead.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	sep := ","
	if strings.Contains(value, ";") {
		sep = ";"
	}

	var items []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return items
}
