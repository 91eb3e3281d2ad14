// Package ingest provides document ingestion options.
package ingest

import (
	"fmt"

	"github.com/kart-io/sentinel-nlq/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options 文档摄取配置。
type Options struct {
	// UploadDir 上传文件暂存目录，任务结束后清理。
	UploadDir string `json:"upload-dir" mapstructure:"upload-dir"`
	// DocumentDB 文档块存储的 sqlite 文件。
	DocumentDB string `json:"document-db" mapstructure:"document-db"`
	// Workers 后台摄取并发任务数。
	Workers int `json:"workers" mapstructure:"workers"`
	// ChunkWords 文本块目标词数。
	ChunkWords int `json:"chunk-words" mapstructure:"chunk-words"`
	// CSVRows 每个 CSV 块的行数。
	CSVRows int `json:"csv-rows" mapstructure:"csv-rows"`
	// TopK 文档检索返回条数。
	TopK int `json:"top-k" mapstructure:"top-k"`
	// HistorySize 查询历史保留条数。
	HistorySize int `json:"history-size" mapstructure:"history-size"`
}

// NewOptions 创建默认摄取配置。
func NewOptions() *Options {
	return &Options{
		UploadDir:   "./data/uploads",
		DocumentDB:  "./data/documents.db",
		Workers:     4,
		ChunkWords:  180,
		CSVRows:     50,
		TopK:        5,
		HistorySize: 50,
	}
}

// AddFlags adds flags for ingest options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "ingest."
	fs.StringVar(&o.UploadDir, p+"upload-dir", o.UploadDir, "Directory for uploaded files awaiting ingestion.")
	fs.StringVar(&o.DocumentDB, p+"document-db", o.DocumentDB, "SQLite file holding document chunks.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Concurrent ingestion jobs.")
	fs.IntVar(&o.ChunkWords, p+"chunk-words", o.ChunkWords, "Target words per text chunk.")
	fs.IntVar(&o.CSVRows, p+"csv-rows", o.CSVRows, "Rows per CSV chunk.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Document results returned per query.")
	fs.IntVar(&o.HistorySize, p+"history-size", o.HistorySize, "Recent queries kept in history.")
}

// Validate validates the ingest options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.UploadDir == "" {
		errs = append(errs, fmt.Errorf("ingest.upload-dir cannot be empty"))
	}
	if o.DocumentDB == "" {
		errs = append(errs, fmt.Errorf("ingest.document-db cannot be empty"))
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"workers", o.Workers},
		{"chunk-words", o.ChunkWords},
		{"csv-rows", o.CSVRows},
		{"top-k", o.TopK},
		{"history-size", o.HistorySize},
	} {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("ingest.%s must be positive", f.name))
		}
	}
	return errs
}

// Complete completes the ingest options with defaults.
func (o *Options) Complete() error {
	return nil
}
