package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// readJSONLines 读取日志文件并逐行解析
func readJSONLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var records []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var rec map[string]interface{}
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("parse log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

// TestHTTPRequestLog 测试访问日志的结构化字段
func TestHTTPRequestLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Config{Level: "info", Format: "json", Output: path, Component: "api-server"})

	l.HTTPRequestLog("GET", "/api/v1/products", 200, 15*time.Millisecond, "127.0.0.1")

	records := readJSONLines(t, path)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec["method"] != "GET" || rec["path"] != "/api/v1/products" {
		t.Errorf("record = %v", rec)
	}
	if rec["status"] != float64(200) {
		t.Errorf("status = %v, want 200", rec["status"])
	}
	if rec["component"] != "api-server" {
		t.Errorf("component = %v, want api-server", rec["component"])
	}
}

// TestDBQueryLog 测试查询日志的级别与错误字段
func TestDBQueryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.log")
	l := New(Config{Level: "debug", Format: "json", Output: path, Component: "mongostore"})

	l.DBQueryLog("find_one", "products", 2*time.Millisecond, nil)
	l.DBQueryLog("insert_one", "products", time.Millisecond, errors.New("duplicate key"))

	records := readJSONLines(t, path)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["level"] != "DEBUG" || records[0]["operation"] != "find_one" {
		t.Errorf("success record = %v", records[0])
	}
	if records[1]["level"] != "ERROR" || records[1]["error"] != "duplicate key" {
		t.Errorf("error record = %v", records[1])
	}
	if records[1]["collection"] != "products" {
		t.Errorf("collection = %v, want products", records[1]["collection"])
	}
}
