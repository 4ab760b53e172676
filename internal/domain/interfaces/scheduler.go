package interfaces

// FrameScheduler difiere trabajo al próximo frame de render.
// Schedule devuelve una función que cancela el trabajo si aún no se ejecutó.
type FrameScheduler interface {
	Schedule(work func()) (cancel func())
}
