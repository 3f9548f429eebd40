// Общая инициализация ONNX Runtime для всех ONNX моделей пакета
package ai

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX Runtime глобальная инициализация
var (
	onnxInitialized bool
	onnxInitMu      sync.Mutex
)

func initONNXRuntime() error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxInitialized {
		return nil
	}

	// Проверяем переменную окружения для пути к библиотеке
	libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")

	// Если не задана переменная окружения, ищем в стандартных местах
	if libPath == "" {
		var names []string
		switch runtime.GOOS {
		case "darwin":
			names = []string{"libonnxruntime.dylib"}
		case "windows":
			names = []string{"onnxruntime.dll"}
		default:
			names = []string{"libonnxruntime.so", "libonnxruntime.so.1"}
		}

		searchDirs := []string{".", "./lib", "/usr/local/lib", "/usr/lib"}
		for _, dir := range searchDirs {
			for _, name := range names {
				candidate := dir + "/" + name
				if _, err := os.Stat(candidate); err == nil {
					libPath = candidate
					break
				}
			}
			if libPath != "" {
				break
			}
		}
	}

	if libPath != "" {
		log.Printf("Using ONNX Runtime library: %s", libPath)
		ort.SetSharedLibraryPath(libPath)
	} else {
		log.Println("ONNX Runtime library not found, ONNX models will not be available")
		return fmt.Errorf("ONNX Runtime library not found")
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return err
	}

	onnxInitialized = true
	log.Println("ONNX Runtime initialized successfully")
	return nil
}

// modelIONames возвращает имена входов и выходов ONNX модели
func modelIONames(modelPath string) ([]string, []string, error) {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get model info: %w", err)
	}

	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}
	return inputNames, outputNames, nil
}
