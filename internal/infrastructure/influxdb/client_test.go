package influxdb_test

import (
	"errors"
	"testing"

	"github.com/wepower/iot-core/internal/infrastructure/config"
	"github.com/wepower/iot-core/internal/infrastructure/influxdb"
)

func TestConnectDisabled(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: false,
		URL:     "http://127.0.0.1:8086",
	}

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestCloseNilClient(t *testing.T) {
	client := &influxdb.Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestFlushNilWriteAPI(t *testing.T) {
	client := &influxdb.Client{}
	// Must not panic
	client.Flush()
}
