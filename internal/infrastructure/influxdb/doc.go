// Package influxdb records Frontdesk authentication activity as time series
// in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Writes are
// non-blocking and batched (influxdb.batch_size, influxdb.flush_interval);
// async write failures are delivered to the SetOnError callback.
//
// Measurements:
//
//	auth_events      tags kind (user|admin), outcome (success|failure|error); field count=1
//	session_sweeps   field deleted (expired sessions removed by one janitor run)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAuthEvent("user", "success", time.Now())
package influxdb
