/*
Package observability exposes the traversal as Prometheus metrics.

Metrics plugs into the engine through domain.LifecycleHooks, so the engine
never imports Prometheus. Short-lived invocations (a cron job, a serverless
trigger) can dump the registry to a node_exporter textfile with
WriteTextfile; long-lived ones serve it over HTTP.
*/
package observability
