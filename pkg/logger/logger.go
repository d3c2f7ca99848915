package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level representa o nível de log
type Level int

const (
	// DEBUG nível para mensagens detalhadas de depuração
	DEBUG Level = iota
	// INFO nível para informações gerais
	INFO
	// WARN nível para avisos
	WARN
	// ERROR nível para erros
	ERROR
	// FATAL nível para erros fatais (encerra o programa)
	FATAL
)

// String retorna o nome do nível
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converte o nome do nível (como aparece na configuração) em Level.
// Valores desconhecidos caem em INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// FileOptions controla a rotação do arquivo de log
type FileOptions struct {
	Dir        string
	Prefix     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	logLevel = INFO

	// Saídas de log
	logOutput   io.Writer = os.Stdout
	errorOutput io.Writer = os.Stderr
	fileOutput  *lumberjack.Logger
	fileErr     *lumberjack.Logger

	timeFormat = "2006-01-02 15:04:05.000"

	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger

	includeFile = true

	mu sync.Mutex

	initialized = false
)

// Init inicializa o logger
func Init() {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return
	}

	buildLoggers(logOutput, errorOutput)
	initialized = true
}

func buildLoggers(out, errOut io.Writer) {
	infoLogger = log.New(out, "", 0)
	warnLogger = log.New(out, "", 0)
	debugLogger = log.New(out, "", 0)
	errorLogger = log.New(errOut, "", 0)
}

// SetLevel define o nível mínimo de log
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
}

// GetLevel retorna o nível atual de log
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return logLevel
}

// IsDebugEnabled verifica se o nível de debug está habilitado
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// SetOutput define a saída para todos os logs (usado principalmente em testes)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	logOutput = w
	errorOutput = w
	buildLoggers(w, w)
	initialized = true
}

// SetIncludeFile liga ou desliga a marcação [arquivo:linha]
func SetIncludeFile(include bool) {
	mu.Lock()
	defer mu.Unlock()
	includeFile = include
}

// EnableFileLogging habilita o log para arquivo com rotação.
// Erros vão também para um arquivo separado "<prefix>_error.log".
func EnableFileLogging(opts FileOptions) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório de log: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "gcs"
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 32
	}

	if fileOutput != nil {
		fileOutput.Close()
	}
	if fileErr != nil {
		fileErr.Close()
	}

	fileOutput = &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, prefix+".log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	fileErr = &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, prefix+"_error.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	// Terminal + arquivo
	buildLoggers(io.MultiWriter(logOutput, fileOutput), io.MultiWriter(errorOutput, fileErr))
	initialized = true

	return nil
}

// Sync fecha os arquivos de log abertos
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if fileOutput != nil {
		fileOutput.Close()
		fileOutput = nil
	}
	if fileErr != nil {
		fileErr.Close()
		fileErr = nil
	}
	buildLoggers(logOutput, errorOutput)
}

// logMessage escreve uma mensagem de log com o nível especificado
func logMessage(level Level, format string, args ...interface{}) {
	mu.Lock()
	minLevel := logLevel
	withSource := includeFile
	var loggerToUse *log.Logger
	switch level {
	case DEBUG:
		loggerToUse = debugLogger
	case INFO:
		loggerToUse = infoLogger
	case WARN:
		loggerToUse = warnLogger
	default:
		loggerToUse = errorLogger
	}
	mu.Unlock()

	if level < minLevel {
		return
	}

	timestamp := time.Now().Format(timeFormat)
	prefix := fmt.Sprintf("%-5s", level.String())

	// Fonte do log (arquivo e linha)
	var source string
	if withSource {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			source = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	var msg string
	if len(args) == 0 {
		msg = format
	} else {
		msg = fmt.Sprintf(format, args...)
	}

	if loggerToUse == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s%s: %s\n", timestamp, prefix, source, msg)
	} else {
		loggerToUse.Printf("[%s] %s%s: %s", timestamp, prefix, source, msg)
	}

	if level == FATAL {
		panic(msg)
	}
}

// Debug escreve mensagem de log com nível DEBUG
func Debug(msg string) {
	logMessage(DEBUG, "%s", msg)
}

// Debugf escreve mensagem de log formatada com nível DEBUG
func Debugf(format string, args ...interface{}) {
	logMessage(DEBUG, format, args...)
}

// Info escreve mensagem de log com nível INFO
func Info(msg string) {
	logMessage(INFO, "%s", msg)
}

// Infof escreve mensagem de log formatada com nível INFO
func Infof(format string, args ...interface{}) {
	logMessage(INFO, format, args...)
}

// Warn escreve mensagem de log com nível WARN
func Warn(msg string) {
	logMessage(WARN, "%s", msg)
}

// Warnf escreve mensagem de log formatada com nível WARN
func Warnf(format string, args ...interface{}) {
	logMessage(WARN, format, args...)
}

// Error escreve mensagem de log com nível ERROR
func Error(msg string, err error) {
	if err != nil {
		logMessage(ERROR, "%s: %v", msg, err)
	} else {
		logMessage(ERROR, "%s", msg)
	}
}

// Errorf escreve mensagem de log formatada com nível ERROR
func Errorf(format string, args ...interface{}) {
	logMessage(ERROR, format, args...)
}

// Fatal escreve mensagem de log com nível FATAL e encerra o programa
func Fatal(msg string, err error) {
	if err != nil {
		logMessage(FATAL, "%s: %v", msg, err)
	} else {
		logMessage(FATAL, "%s", msg)
	}
}

// Fatalf escreve mensagem de log formatada com nível FATAL e encerra o programa
func Fatalf(format string, args ...interface{}) {
	logMessage(FATAL, format, args...)
}
