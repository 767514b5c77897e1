package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/SamuelOshin/mockbox-api/internal/adapter/database"
	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
)

// Carrega o catálogo de templates a partir de um diretório de arquivos JSON,
// sem precisar subir o servidor.
func main() {
	var (
		dir      string
		dbDriver string
		dbDSN    string
	)

	flag.StringVar(&dir, "dir", "./templates", "Diretório com os arquivos JSON de templates")
	flag.StringVar(&dbDriver, "driver", "sqlite", "Driver do banco de dados (sqlite, mysql, postgres)")
	flag.StringVar(&dbDSN, "dsn", "./mockbox.db", "DSN do banco de dados")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dbConfig := database.Config{
		Driver:          dbDriver,
		DSN:             dbDSN,
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		LogLevel:        4,
		SlowThreshold:   200 * time.Millisecond,
		SkipMigrations:  true,
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if !db.DB().Migrator().HasTable(&model.TemplateEntity{}) {
		if err := db.DB().AutoMigrate(&model.TemplateEntity{}); err != nil {
			fmt.Printf("Erro ao criar tabela de templates: %v\n", err)
			os.Exit(1)
		}
	}

	loader := database.NewJSONTemplateLoader(db, logger)
	if err := loader.LoadTemplatesFromDir(dir); err != nil {
		fmt.Printf("Erro ao carregar templates: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Templates carregados a partir de %s\n", dir)
}
