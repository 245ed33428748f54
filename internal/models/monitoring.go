package models

import "time"

// MonitoringResponse foto completa del estado del servicio
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Cache       CacheMetrics       `json:"cache"`
	Store       StoreMetrics       `json:"store"`
	Runtime     RuntimeMetrics     `json:"runtime"`
	Redis       RedisMetrics       `json:"redis"`
	Business    BusinessMetrics    `json:"business"`
	Timestamp   time.Time          `json:"timestamp"`
	Version     string             `json:"version"`
}

// RequestMetrics tráfico HTTP desde el arranque
type RequestMetrics struct {
	Total        int64              `json:"total"`
	Endpoints    int                `json:"endpoints"`
	TopEndpoints []EndpointMetrics  `json:"top_endpoints"`
	SlowRequests []RequestSample    `json:"slow_requests"`
	Errors       []RequestSample    `json:"errors"`
	ByStatus     map[string]int64   `json:"by_status"`
	ByEndpoint   map[string]float64 `json:"avg_ms_by_endpoint"`
}

// EndpointMetrics acumulado de un "MÉTODO ruta"
type EndpointMetrics struct {
	Endpoint string  `json:"endpoint"`
	Count    int64   `json:"count"`
	AvgMs    float64 `json:"avg_ms"`
	TotalMs  int64   `json:"-"`
}

// RequestSample request lento o fallido
type RequestSample struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

type PerformanceMetrics struct {
	AvgMs float64 `json:"avg_ms"`
	MaxMs int64   `json:"max_ms"`
	MinMs int64   `json:"min_ms"`
}

// CacheMetrics caché de productos por código de barras
type CacheMetrics struct {
	Status  string  `json:"status"`
	Redis   bool    `json:"redis"`
	Keys    int     `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// StoreMetrics registros por colección y, con PostgreSQL, el pool
type StoreMetrics struct {
	Driver          string         `json:"driver"`
	Status          string         `json:"status"`
	OpenConnections int            `json:"open_connections"`
	InUse           int            `json:"in_use"`
	Collections     map[string]int `json:"collections"`
	TotalRecords    int            `json:"total_records"`
}

type RuntimeMetrics struct {
	HeapMB      float64 `json:"heap_mb"`
	SysMB       float64 `json:"sys_mb"`
	Goroutines  int     `json:"goroutines"`
	CPUs        int     `json:"cpus"`
	UptimeHours float64 `json:"uptime_hours"`
	GoVersion   string  `json:"go_version"`
	Environment string  `json:"environment"`
}

type RedisMetrics struct {
	Status   string  `json:"status"`
	Keys     int64   `json:"keys"`
	MemoryMB float64 `json:"memory_mb"`
}

// RequestData lo que el middleware reporta de cada request
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
	Error      error
}

// BusinessMetrics indicadores del negocio para el tablero
type BusinessMetrics struct {
	SalesToday         int    `json:"sales_today"`
	SalesTodayTotal    string `json:"sales_today_total"`
	LowStock           int    `json:"low_stock"`
	OpenRegisters      int    `json:"open_registers"`
	OverdueInvoices    int    `json:"overdue_invoices"`
	AccountsReceivable string `json:"accounts_receivable"`
	AccountsPayable    string `json:"accounts_payable"`
}
