// Comando issue-token: emite un JWT firmado con JWT_SECRET para pruebas locales e integraciones.
// En producción los tokens los emite el sistema de autenticación externo con el mismo formato de claims.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/Perecederos-api/pkg/config"
	"github.com/jhoicas/Perecederos-api/pkg/jwt"
)

func main() {
	userID := flag.String("user", "cli", "ID del usuario (sub)")
	role := flag.String("role", jwt.RoleOperator, "rol: admin | operador")
	storeID := flag.Int64("store", 0, "tienda del operador")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no definido")
		os.Exit(1)
	}

	token, err := jwt.Generate(cfg.JWT.Secret, *userID, *storeID, *role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "emitir token:", err)
		os.Exit(1)
	}
	// validar con las mismas reglas que la API antes de entregarlo
	if _, err := jwt.Parse(cfg.JWT.Secret, token); err != nil {
		fmt.Fprintln(os.Stderr, "token rechazado:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
