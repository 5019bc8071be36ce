package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"portal_chat_service/pkg/config"
	"portal_chat_service/pkg/logger"
)

// StartPprof 非 production 環境啟動 pprof 監控伺服器
// 聊天 broker 每條連線各帶 reader/writer goroutine,
// /debug/pprof/goroutine 是排查連線洩漏的主要入口
func StartPprof() {
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}

	// 只綁 loopback, pprof 資料不對外
	go func() {
		logger.Log.Info("Starting pprof server on 127.0.0.1:6060")
		if err := http.ListenAndServe("127.0.0.1:6060", nil); err != nil {
			logger.Log.Infof("pprof server failed:", err)
		}
	}()
}

// 常用端點：
// 	•	/debug/pprof/ → 顯示所有可用的分析數據
// 	•	/debug/pprof/goroutine → 顯示所有 Goroutines
// 	•	/debug/pprof/heap → 顯示記憶體分配
// 	•	/debug/pprof/profile → 執行 30 秒 CPU 分析
// 	•	/debug/pprof/block → 顯示 goroutine 阻塞的情況
// 	•	/debug/pprof/mutex → 顯示 mutex 鎖的競爭情況
