package worker

// NewHandlers wires every job type to its worker. A nil email worker means
// SMTP is not configured; email jobs then land in the DLQ.
func NewHandlers(auditoria *AuditoriaWorker, alertas *AlertasWorker, email *EmailWorker) Handlers {
	h := Handlers{
		JobMovimientos:  auditoria.ProcessMovimientos,
		JobActividad:    auditoria.ProcessActividad,
		JobEvaluarStock: alertas.Process,
	}
	if email != nil {
		h[JobEmail] = email.Process
	}
	return h
}
