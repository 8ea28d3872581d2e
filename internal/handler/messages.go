package handler

import "fmt"

// Member-facing texts.  Every response that a member may read carries one
// of these in its "message" field.

func msgUnknownZone(query string) string {
    return fmt.Sprintf("Désolé, je ne reconnais pas '%s' comme une zone existante ou réservable. Essaie avec une meilleure ortographe ou contacte un lead.", query)
}

func msgConfirmReserve(zone string) string {
    return fmt.Sprintf("Réserver pour '%s' ?", zone)
}

func msgConfirmCancel(zone string) string {
    return fmt.Sprintf("Supprimer la réservation de '%s' ?", zone)
}

func msgLimits(zone string) string {
    return fmt.Sprintf("Désolé, tu as déjà 3 réservations actives ou la zone '%s' a atteint sa capacité maximale de réservations.", zone)
}

func msgReserved(zone, until string) string {
    return fmt.Sprintf("Réservation confirmée pour la zone '%s' ! Ta réservation expirera le %s.", zone, until)
}

func msgNothingToCancel(zone string) string {
    return fmt.Sprintf("Je n'ai pas trouvé de réservation active pour la zone '%s' à ton nom. Pas besoin de t'inquiéter, rien n'a été supprimé.", zone)
}

func msgCancelled(zone string) string {
    return fmt.Sprintf("Réservation terminée pour la zone '%s' ! La place est libérée.", zone)
}

const (
    msgUnavailable   = "Le service de réservation est temporairement indisponible. Réessaie dans quelques instants."
    msgNotReservable = "Cette demande ne peut pas être réservée : nom ou zone manquant."
    msgExpired       = "Temps écoulé : la demande n'est plus valable, rien n'a été modifié."
    msgDeclined      = "Demande abandonnée, rien n'a été modifié."
    msgNotYours      = "Cette confirmation ne t'appartient pas."
)
