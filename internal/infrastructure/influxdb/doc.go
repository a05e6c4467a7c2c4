// Package influxdb writes dashboard telemetry to InfluxDB v2 using the
// official influxdb-client-go library.
//
// Three measurements are written:
//   - sensor_readings: temperature and humidity, tagged by source
//   - energy: total power draw in watts
//   - device_status: per-device on/off and rated power
//
// Writes never block the caller. Points are batched according to
// influxdb.batch_size and influxdb.flush_interval; flush errors are
// delivered to the SetOnError callback.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.WritePowerConsumption(260, time.Now())
package influxdb
