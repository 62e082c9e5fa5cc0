// Package audit registra eventos de seguridad como JSON estructurado en
// el log del proceso. Hoy el sink es stdout; el shape queda estable para
// poder moverlo a un sink externo sin tocar a los callers.
package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event escribe un evento de auditoría. Los fields no deben llevar PII
// sin enmascarar (ver util.MaskEmail).
func Event(event string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["audit"] = true
	fields["event"] = event
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, _ := json.Marshal(fields)
	log.Printf("%s", b)
}
