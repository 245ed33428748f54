package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

const (
	boldColor  = "\033[1m"
	greenColor = "\033[32m"
	cyanColor  = "\033[36m"
)

// ServerBanner datos de arranque que se muestran en consola
type ServerBanner struct {
	Port      string
	Store     string
	Redis     bool
	Sequencer string
	Sweep     time.Duration
}

// ServerInfo muestra información del servidor al iniciar
func ServerInfo(b ServerBanner, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	numCPU := runtime.NumCPU()
	startTime := time.Now().Format("2006-01-02 15:04:05")

	redis := "disabled"
	if b.Redis {
		redis = "enabled"
	}
	sweep := "disabled"
	if b.Sweep > 0 {
		sweep = "every " + b.Sweep.String()
	}
	base := "http://localhost:" + b.Port

	fmt.Println("")
	fmt.Println("🚀 " + boldColor + "Retail ERP API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + base + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("⚡ CPU Cores: " + fmt.Sprintf("%d", numCPU))
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Available Endpoints:" + resetColor)
	fmt.Println("   GET  " + greenColor + "/" + resetColor + "                 - API Information")
	fmt.Println("   GET  " + greenColor + "/health" + resetColor + "           - Health Check")
	fmt.Println("   *    " + greenColor + "/api/v1/sales" + resetColor + "     - Sales")
	fmt.Println("   *    " + greenColor + "/api/v1/products" + resetColor + "  - Products & stock")
	fmt.Println("   *    " + greenColor + "/api/v1/registers" + resetColor + " - Cash registers")
	fmt.Println("   *    " + greenColor + "/api/v1/invoices" + resetColor + "  - Invoices")
	fmt.Println("")
	fmt.Println("🔍 " + boldColor + "Monitoring:" + resetColor)
	fmt.Println("   📈 Metrics: " + cyanColor + base + "/api/v1/monitoring/metrics" + resetColor)
	fmt.Println("   🔌 WebSocket: " + cyanColor + "ws://localhost:" + b.Port + "/api/v1/monitoring/ws" + resetColor)
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Store: " + b.Store)
	fmt.Println("   🗃️  Redis: " + redis)
	fmt.Println("   🔢 Sequencer: " + b.Sequencer)
	fmt.Println("   ⏰ Overdue sweep: " + sweep)
	fmt.Println("   📝 Logging: Structured (Zap)")
	fmt.Println("")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✨ " + boldColor + "Server is ready to handle requests!" + resetColor)
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", b.Port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("cpu_cores", numCPU),
		zap.String("store", b.Store),
		zap.Bool("redis", b.Redis),
		zap.String("sequencer", b.Sequencer),
		zap.String("start_time", startTime),
	)
}
