// unitctl — консольный клиент unit-tracker: таблица подразделений с
// фильтрами и сортировкой, поиск, статистика, CRUD и генерация
// демонстрационных данных.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
